package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentboard/dashboard-service/test/mockupstream"
)

func main() {
	addr := flag.String("addr", ":8001", "Server address")
	bare := flag.Bool("bare-lists", false, "Answer list endpoints with bare arrays")
	flag.Parse()

	state := mockupstream.NewState()
	state.SetBareLists(*bare)
	server := mockupstream.NewServer(state)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down mock upstream...")
		os.Exit(0)
	}()

	log.Printf("Starting mock gateway/billing upstream on %s", *addr)
	if err := server.Run(*addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
