package main

import "healthcare-chat/config"

func main() {
	config.RunServer()
}
