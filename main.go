package main

import (
	"log"

	"jokebot/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatalln(err)
	}
}
