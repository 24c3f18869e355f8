package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/usecase"
	"github.com/secmon-lab/darbolex/pkg/utils/errutil"
	"github.com/secmon-lab/darbolex/pkg/utils/safe"
)

// RetrieveUseCase is the retrieval operation served over HTTP
type RetrieveUseCase interface {
	Retrieve(ctx context.Context, query string, opts usecase.RetrieveOptions) (*usecase.RetrievalResult, error)
}

type retrieveRequest struct {
	Query   string `json:"query"`
	DocType string `json:"doc_type,omitempty"`
}

type passageResponse struct {
	ID            string  `json:"id"`
	Score         float64 `json:"score"`
	Direct        bool    `json:"direct"`
	Text          string  `json:"text"`
	DocType       string  `json:"doc_type"`
	DocumentSlug  string  `json:"document_slug"`
	DocumentTitle string  `json:"document_title,omitempty"`
	SourceID      string  `json:"source_id,omitempty"`
	ArticleNumber int     `json:"article_number,omitempty"`
	ArticleTitle  string  `json:"article_title,omitempty"`
	ChapterTitle  string  `json:"chapter_title,omitempty"`
	CaseNumber    string  `json:"case_number,omitempty"`
	CaseTitle     string  `json:"case_title,omitempty"`
}

type retrieveResponse struct {
	Query          string             `json:"query"`
	ArticleNumbers []int              `json:"article_numbers"`
	NoSources      bool               `json:"no_sources"`
	Passages       []*passageResponse `json:"passages"`
}

func toRetrieveResponse(result *usecase.RetrievalResult) *retrieveResponse {
	resp := &retrieveResponse{
		Query:          result.Query,
		ArticleNumbers: result.ArticleNumbers,
		NoSources:      result.NoSources,
		Passages:       make([]*passageResponse, len(result.Passages)),
	}
	if resp.ArticleNumbers == nil {
		resp.ArticleNumbers = []int{}
	}

	for i, p := range result.Passages {
		resp.Passages[i] = &passageResponse{
			ID:            string(p.ID),
			Score:         p.Score,
			Direct:        p.Direct,
			Text:          p.Text,
			DocType:       string(p.DocType),
			DocumentSlug:  string(p.DocumentSlug),
			DocumentTitle: p.DocumentTitle,
			SourceID:      p.SourceID,
			ArticleNumber: p.ArticleNumber,
			ArticleTitle:  p.ArticleTitle,
			ChapterTitle:  p.ChapterTitle,
			CaseNumber:    p.CaseNumber,
			CaseTitle:     p.CaseTitle,
		}
	}
	return resp
}

func retrieveHandler(uc RetrieveUseCase, bodyLimit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req retrieveRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, bodyLimit)).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid retrieve request"), http.StatusBadRequest)
			return
		}

		opts := usecase.RetrieveOptions{DocType: model.SourceType(req.DocType)}
		if opts.DocType != "" {
			if err := opts.DocType.Validate(); err != nil {
				errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
				return
			}
		}

		result, err := uc.Retrieve(ctx, req.Query, opts)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, usecase.ErrEmptyQuery) {
				status = http.StatusBadRequest
			}
			errutil.HandleHTTP(ctx, w, err, status)
			return
		}

		writeJSON(w, r, http.StatusOK, toRetrieveResponse(result))
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
