package answer

import (
	"context"
	"time"

	"github.com/ibu-sdp/rag-api/internal/adapter/utils"
	"github.com/ibu-sdp/rag-api/internal/config"
	"github.com/ibu-sdp/rag-api/internal/domain/chatModel"
	"github.com/ibu-sdp/rag-api/internal/domain/commonModels"
	"github.com/ibu-sdp/rag-api/internal/rag/embedding"
	"github.com/ibu-sdp/rag-api/internal/rag/llm"
	"github.com/ibu-sdp/rag-api/internal/rag/vectorDB"
	"github.com/ibu-sdp/rag-api/internal/session"
	"github.com/ibu-sdp/rag-api/pkg/logger_i"
)

// Answerer turns a question into a grounded answer: resolve the session,
// embed the question, retrieve the nearest chunks, assemble the prompt and
// call the model. The user turn is recorded before any model call, so a
// failed request still shows up in the conversation; the assistant turn is
// recorded only for answers that were actually produced.
type Answerer struct {
	Embedder embedding.Embedder
	Index    vectorDB.Index
	Cache    vectorDB.AnswerCache
	LLM      llm.Provider
	Sessions session.Store

	logger *logger_i.Logger
}

// Answer carries the model's reply plus the session it belongs to. SessionId
// is always set, even when the caller came in without one.
type Answer struct {
	Text      string
	SessionId string
	Sources   []string
	Cached    bool
}

func NewAnswerer(e embedding.Embedder, idx vectorDB.Index, cache vectorDB.AnswerCache, provider llm.Provider, sessions session.Store) *Answerer {
	return &Answerer{
		Embedder: e,
		Index:    idx,
		Cache:    cache,
		LLM:      provider,
		Sessions: sessions,
		logger:   logger_i.NewLogger("answerer"),
	}
}

func (a *Answerer) Answer(ctx context.Context, question string, sessionId string) (Answer, error) {
	log := a.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	sessionId, err := a.resolveSession(ctx, sessionId)
	if err != nil {
		return Answer{}, err
	}
	log = log.With("sessionId", sessionId)
	res := Answer{SessionId: sessionId}

	// History is read before the question is appended, so the prompt does
	// not repeat the question inside its own history block.
	history, err := a.Sessions.History(ctx, sessionId)
	if err != nil {
		return res, err
	}
	if err := a.Sessions.Append(ctx, sessionId, chatModel.NewTurn(chatModel.RoleUser, question)); err != nil {
		return res, err
	}

	questionVector, err := a.Embedder.GetEmbedding(ctx, question)
	if err != nil {
		return res, &commonModels.AnswerError{Step: "embedding question", Err: err}
	}

	if a.Cache != nil {
		if cached, hit, err := a.Cache.GetCachedAnswer(ctx, questionVector); err == nil && hit {
			log.Info("Answer served from semantic cache")
			res.Text = cached
			res.Cached = true
			if err := a.Sessions.Append(ctx, sessionId, chatModel.NewTurn(chatModel.RoleAssistant, cached)); err != nil {
				log.Error("Answer produced but not recorded in session", "error", err)
			}
			return res, nil
		}
	}

	hits, err := a.Index.Query(ctx, config.ChunkCollection, questionVector, config.ContextChunkCount)
	if err != nil {
		return res, &commonModels.AnswerError{Step: "retrieving context", Err: err}
	}
	log.Debug("Retrieved context", "chunks", len(hits))

	prompt := buildPrompt(question, hits, history)
	answerText, err := a.LLM.Complete(ctx, config.SystemInstruction, prompt)
	if err != nil {
		return res, &commonModels.AnswerError{Step: "model completion", Err: err}
	}

	if err := a.Sessions.Append(ctx, sessionId, chatModel.NewTurn(chatModel.RoleAssistant, answerText)); err != nil {
		log.Error("Answer produced but not recorded in session", "error", err)
	}

	if a.Cache != nil {
		vec := questionVector
		go func() {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := a.Cache.SaveToCache(cctx, utils.GetNewUUID(), vec, answerText); err != nil {
				a.logger.Error("Failed caching answer", "error", err)
			}
		}()
	}

	res.Text = answerText
	res.Sources = collectSources(hits)
	return res, nil
}

// resolveSession creates a session for first-time callers. A supplied id
// must already exist - an unknown id is the caller's error, not a trigger
// for a silent new conversation.
func (a *Answerer) resolveSession(ctx context.Context, sessionId string) (string, error) {
	if sessionId == "" {
		return a.Sessions.Create(ctx)
	}
	found, err := a.Sessions.Exists(ctx, sessionId)
	if err != nil {
		return "", err
	}
	if !found {
		return "", chatModel.ErrSessionNotFound
	}
	return sessionId, nil
}

func collectSources(hits []commonModels.SearchHit) []string {
	seen := make(map[string]bool, len(hits))
	var sources []string
	for _, h := range hits {
		if h.Origin == "" || seen[h.Origin] {
			continue
		}
		seen[h.Origin] = true
		sources = append(sources, h.Origin)
	}
	return sources
}
