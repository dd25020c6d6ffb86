package actbot_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/actbot"
	"github.com/aretw0/actbot/internal/config"
	"github.com/aretw0/actbot/pkg/domain"
)

// ExampleNew runs the first two questions of an interview with the in-memory store.
func ExampleNew() {
	cfg := config.Default()
	cfg.Engine.AnswerPacing = 0
	cfg.Engine.CompletionPacing = 0

	bot, err := actbot.New(cfg, actbot.WithoutTimers())
	if err != nil {
		log.Fatal(err)
	}
	defer bot.Close()

	ctx := context.Background()
	res, err := bot.Start(ctx, domain.StartOptions{SessionID: "guest_example"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Prompt.Question)

	res, err = bot.Submit(ctx, res.Session.ID, "ada")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Session.Answers.FirstName, res.Prompt.Stage)
	// Output:
	// What's your name?
	// Ada 2
}
