package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/Antonite/oware"
	"github.com/pkg/errors"

	"github.com/Antonite/oware_a3c/actorcritic"
	"github.com/Antonite/oware_a3c/agent"
	"github.com/Antonite/oware_a3c/env"
	"github.com/Antonite/oware_a3c/storage"
)

func main() {
	var player = flag.Int("player", 0, "[0,1]")
	checkpoint := flag.String("checkpoint", "", "Checkpoint id; latest when empty")
	seed := flag.Uint64("seed", 1, "Seed for a fresh model when no checkpoint exists")
	host := flag.String("couchbase", "", "Couchbase host; play a fresh model when empty")
	user := flag.String("user", "oware", "Couchbase user")
	pass := flag.String("pass", "", "Couchbase password")
	bucket := flag.String("bucket", "a3c", "Couchbase bucket")
	flag.Parse()
	if *player != 0 && *player != 1 {
		flag.Usage()
		return
	}

	fmt.Printf("starting oware client for player: %v\n", *player)

	model, err := actorcritic.New(env.Channels, actorcritic.Discrete(env.Actions), actorcritic.WithSeed(*seed))
	if err != nil {
		fmt.Println("failed to build model")
		panic(err)
	}
	model.Eval()

	if *host != "" {
		cfg := storage.CouchbaseConfig{Host: *host, Username: *user, Password: *pass, Bucket: *bucket}
		if err := load(model, cfg, *checkpoint); err != nil {
			fmt.Println("failed to load checkpoint")
			panic(err)
		}
	}

	input := bufio.NewScanner(os.Stdin)
	ai := agent.NewOpponent(model)
	b := oware.Initialize()
	seen := map[string]bool{b.ToString(): true}
	for b.Status == oware.InProgress {
		fmt.Println("-------------------------------------------")
		fmt.Println("-------------------------------------------")
		fmt.Printf("Board state: %v\n", b)
		fmt.Printf("Move options: %v\n", b.GetValidMoves())

		var nb *oware.Board
		if b.Player() == *player {
			fmt.Println("Your turn. Waiting for move selection...")
			nb = readMove(input, b)
			if nb == nil {
				fmt.Println("input closed, ending game")
				b.ForceEndGame()
				break
			}
		} else {
			fmt.Println("AI's turn. Waiting for move selection...")
			step, err := ai.Move(b)
			if err != nil {
				fmt.Printf("AI failed to move on %s\n", b.ToString())
				panic(err)
			}
			nb, err = b.Move(step.Move)
			if err != nil {
				panic(err)
			}
			fmt.Printf("AI chose: %v (p=%.3f value=%.3f)\n", step.Move, math.Exp(step.LogProb), step.Value)
		}

		// Repeating, must end game
		nbs := nb.ToString()
		if seen[nbs] {
			b.ForceEndGame()
			fmt.Printf("forcefully ended game due to repetition: %s\n", nbs)
			continue
		}
		seen[nbs] = true
		b = nb
	}

	fmt.Println("-------------------------------------------")
	fmt.Println("-------------------------------------------")
	fmt.Println("Game ended.")
	fmt.Println(b)
	switch b.Status {
	case oware.Tie:
		fmt.Println("Tie")
	case oware.Player1Won:
		fmt.Println("Player 0 won")
	default:
		fmt.Println("Player 1 won")
	}
}

// readMove reads pits from input until one is a legal move on b. It
// returns nil when input runs out.
func readMove(input *bufio.Scanner, b *oware.Board) *oware.Board {
	for input.Scan() {
		playerMove, err := strconv.Atoi(input.Text())
		if err != nil {
			fmt.Println("bad input, try again")
			continue
		}

		nb, err := b.Move(playerMove)
		if err != nil {
			fmt.Println("bad input, try again")
			continue
		}

		fmt.Printf("You chose pit: %v\n", playerMove)
		return nb
	}
	return nil
}

func load(model *actorcritic.Model, cfg storage.CouchbaseConfig, id string) error {
	cb, err := storage.OpenCouchbase(cfg)
	if err != nil {
		return err
	}
	store := storage.NewStore(cb)
	defer store.Close()

	ckpt, err := store.LoadInto(model, id)
	switch {
	case errors.Is(err, storage.ErrNotFound) && id == "":
		fmt.Println("no checkpoint stored, playing a fresh model")
		return nil
	case err != nil:
		return err
	}
	fmt.Printf("playing checkpoint: %s\n", ckpt.ID)
	return nil
}
