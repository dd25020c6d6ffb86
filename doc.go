/*
Package actbot is a guided-interview engine for the A.C.T. (Assess, Commit, Transform) business coaching funnel.

A session walks a small-business owner through 18 fixed stages: name, business, registration and terms, plan choice, challenge discovery, goals, contact details and the final offer. Every accepted answer updates a running incentive score (estimated savings and hours), advances the stage and appends to the transcript. Invalid input is rejected with a user-facing message and counted; repeated rejections lock the session.

# Architecture

The engine (internal/runtime) is a pure state machine: every operation takes an immutable session snapshot and returns a new one plus an outcome describing replies, notices and side effects. The session service (pkg/session) serializes operations per session, persists snapshots through a ports.SessionStore, forwards side effects to the collaborators (answer persister, event recorder, resume mailer) and arms the inactivity timers. Adapters expose the service over HTTP, Server-Sent Events, WebSockets, MCP and a terminal chat.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/actbot"
		"github.com/aretw0/actbot/pkg/domain"
	)

	func main() {
		// Memory store, log collaborators and default timers.
		bot, err := actbot.New(nil)
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		ctx := context.Background()
		res, err := bot.Start(ctx, domain.StartOptions{Referrer: "Sam"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Prompt.Question)

		res, err = bot.Submit(ctx, res.Session.ID, "Ada")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Prompt.Question)
	}

Configuration is read with config.Load from an optional YAML file, a .env file and ACTBOT_* environment variables.
*/
package actbot
