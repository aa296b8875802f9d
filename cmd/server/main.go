package main

import "giraffe/internal/app/server"

func main() {
	server.Run()
}
