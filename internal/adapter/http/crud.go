package http

import (
	"context"
	"net/http"
)

// Generic handler factories for the REST surface. Reads are keyed by the
// "id" URL parameter; a nil list is always written as [].

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// handleList serves a list that needs no URL parameter.
func handleList[T any](listFn func(ctx context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := listFn(r.Context())
		if err != nil {
			writeDomainError(w, err, "not found")
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(items))
	}
}

// handleListByID serves the rows belonging to the resource named by {id}.
func handleListByID[T any](listFn func(ctx context.Context, id string) ([]T, error), notFoundMsg string) http.HandlerFunc {
	return handleGet(func(ctx context.Context, id string) (*[]T, error) {
		items, err := listFn(ctx, id)
		if err != nil {
			return nil, err
		}
		items = emptyIfNil(items)
		return &items, nil
	}, notFoundMsg)
}

// handleGet serves the single resource named by {id}.
func handleGet[T any](getFn func(ctx context.Context, id string) (*T, error), notFoundMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := getFn(r.Context(), urlParam(r, "id"))
		if err != nil {
			writeDomainError(w, err, notFoundMsg)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleRun decodes a JSON body into Req, runs fn and answers with status.
func handleRun[Req any, Res any](bodyLimit int64, status int, fn func(ctx context.Context, req *Req) (*Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := readJSON[Req](w, r, bodyLimit)
		if !ok {
			return
		}
		res, err := fn(r.Context(), &req)
		if err != nil {
			writeDomainError(w, err, "not found")
			return
		}
		writeJSON(w, status, res)
	}
}
