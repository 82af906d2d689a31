package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"salehero-chat/internal/client"
	"salehero-chat/internal/config"
	"salehero-chat/internal/models"
	"salehero-chat/internal/store"
)

// bridge is a headless chat participant: it joins the Sale Hero chat topic,
// prints inbound traffic and relays stdin lines through the rate-limited
// send path.
func main() {
	cfg, err := config.LoadBridge()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	chat := client.New(client.Options{
		BrokerURL:       cfg.BrokerURL,
		HistoryURL:      cfg.HistoryURL,
		AccessToken:     cfg.AccessToken,
		ReconnectDelay:  cfg.ReconnectDelay,
		HistoryPageSize: cfg.HistoryPage,
		OnCooldownTick: func(remaining int) {
			if remaining > 0 {
				fmt.Printf("rate limited, sending re-enabled in %ds\n", remaining)
			} else {
				fmt.Println("sending re-enabled")
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chat.Start(ctx)
	defer chat.Close()

	var mu sync.Mutex
	printed := 0
	chat.Store.Subscribe(func() {
		mu.Lock()
		defer mu.Unlock()
		msgs := chat.Store.Messages()
		for ; printed < len(msgs); printed++ {
			printMessage(chat.Store, msgs[printed])
		}
	})

	go readStdin(chat)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down")
}

func readStdin(chat *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !chat.Send(line) {
			fmt.Println("message rejected, slow down")
		}
	}
}

func printMessage(st *store.Store, msg models.Message) {
	sender := msg.Sender
	if sender == "" {
		sender = "anonymous"
	}
	marker := " "
	if st.LocalIdentity() != "" && sender == st.LocalIdentity() {
		marker = "*"
	}
	switch msg.Type {
	case models.KindJoin, models.KindLeave:
		fmt.Printf("-- %s\n", msg.Content)
	default:
		fmt.Printf("%s[%s] %s\n", marker, sender, msg.Content)
	}
}
