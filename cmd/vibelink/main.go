package main

import "github.com/thereayou/vibelink/cmd/server"

func main() {
	srv := server.NewServer()
	defer srv.Stop()
	srv.Run()
}
