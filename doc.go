/*
Package parley runs checkpointed practice interviews.

An interview is a graph of nodes. Some nodes talk (greet the student, ask a
question), others wait for a reply and classify it (is this the right person,
which topic, which difficulty, is the answer right). The engine runs nodes until
it reaches one that needs the student's reply, saves a checkpoint and returns.
The next reply resumes the session from that checkpoint, in the same process or
after a restart.

# Usage

	eng, err := parley.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	res, err := eng.Start(ctx, map[string]any{"name": "Sam"})
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range res.Messages {
		fmt.Println(m.Text)
	}

	res, err = eng.Resume(ctx, res.SessionID, "yes, that's me")

By default sessions live in memory and replies are classified by offline rules.
Use WithStore to persist them (file or redis adapters) and WithClassifier and
WithGenerator to plug in an LLM (see pkg/adapters/llm).

Every classifier and generator call is retried (three attempts by default) and
falls back to a scripted value, so a flaky model never breaks the conversation.
*/
package parley
