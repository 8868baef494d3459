// Package knowledge retrieves reviewed guidance chunks for a query.
// Retrieval is deterministic keyword ranking over a chunked corpus; the
// corpus ships embedded and can be replaced at startup from a GCS
// bucket maintained by the guidance review team.
package knowledge

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

// chunkSeparator splits a document into retrievable chunks.
const chunkSeparator = "\n---\n"

// DefaultTopK is the number of chunks returned per query.
const DefaultTopK = 3

// Chunk is one retrievable piece of guidance.
type Chunk struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

type scoredChunk struct {
	chunk  Chunk
	tokens map[string]int
}

// Base is an in-memory keyword index over the guidance corpus.
type Base struct {
	chunks []scoredChunk
}

// NewBase indexes the embedded corpus.
func NewBase() *Base {
	return newBaseFrom(builtinCorpus)
}

func newBaseFrom(docs []Document) *Base {
	b := &Base{}
	for _, doc := range docs {
		for _, part := range strings.Split(doc.Content, chunkSeparator) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			b.chunks = append(b.chunks, scoredChunk{
				chunk:  Chunk{Content: part, Source: doc.Source},
				tokens: tokenise(part),
			})
		}
	}
	return b
}

// queryStopwords are dropped from both queries and chunks.
var queryStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "what": true,
	"how": true, "can": true, "you": true, "your": true, "are": true,
	"is": true, "my": true, "to": true, "of": true, "in": true, "a": true,
	"do": true, "does": true, "me": true, "about": true, "it": true,
}

func tokenise(text string) map[string]int {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?:;'\"()%")
		if len(word) < 2 || queryStopwords[word] {
			continue
		}
		counts[word]++
	}
	return counts
}

// Retrieve returns the top-k chunks ranked by query-term frequency.
// Chunks matching no query term are never returned; an empty result
// means the corpus has nothing relevant and the narrator should say so.
func (b *Base) Retrieve(query string, k int) []Chunk {
	if k <= 0 {
		k = DefaultTopK
	}
	queryTokens := tokenise(query)

	type ranked struct {
		chunk Chunk
		score int
		index int
	}
	var hits []ranked
	for i, sc := range b.chunks {
		score := 0
		for token := range queryTokens {
			score += sc.tokens[token]
		}
		if score > 0 {
			hits = append(hits, ranked{chunk: sc.chunk, score: score, index: i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].index < hits[j].index
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]Chunk, len(hits))
	for i, h := range hits {
		out[i] = h.chunk
	}
	return out
}

// LoadFromGCS replaces the corpus with every .txt object under the
// bucket prefix. Any failure leaves the embedded corpus in place: a
// stale knowledge base beats no coaching at all.
func LoadFromGCS(ctx context.Context, log zerolog.Logger, bucketName, prefix string) *Base {
	docs, err := fetchCorpus(ctx, bucketName, prefix)
	if err != nil {
		log.Warn().Err(err).Str("bucket", bucketName).Msg("knowledge corpus download failed, using embedded corpus")
		return NewBase()
	}
	if len(docs) == 0 {
		log.Warn().Str("bucket", bucketName).Msg("knowledge bucket empty, using embedded corpus")
		return NewBase()
	}
	log.Info().Int("documents", len(docs)).Str("bucket", bucketName).Msg("knowledge corpus loaded from GCS")
	return newBaseFrom(docs)
}

func fetchCorpus(ctx context.Context, bucketName, prefix string) ([]Document, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	bkt := client.Bucket(bucketName)
	it := bkt.Objects(ctx, &storage.Query{Prefix: prefix})

	var docs []Document
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list knowledge objects: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, ".txt") {
			continue
		}

		r, err := bkt.Object(attrs.Name).NewReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("open knowledge object reader: %w", err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("read knowledge object: %w", err)
		}

		name := attrs.Name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		docs = append(docs, Document{Source: name, Content: string(data)})
	}
	return docs, nil
}
