// Package leanbot embeds the LEAN BOT fallback responder: canned replies for
// greetings and small talk plus a TF-IDF matcher over a FAQ corpus, with a
// domain term expander to bridge vocabulary.
//
//	bot, err := leanbot.New(ctx,
//	    leanbot.WithCorpusFile("data/data.json"),
//	    leanbot.WithSynonyms("data/synonyms.yaml"),
//	    leanbot.WithThreshold(0.3),
//	)
//	if err != nil {
//	    return err
//	}
//	ans, _ := bot.Answer("¿Cuál es el objetivo del proyecto?")
//	fmt.Println(ans.Text, ans.Similarity)
//
// The responder is stateless after construction and safe for concurrent use.
package leanbot
