package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tally-backend/api/validators"
	"github.com/angelmondragon/tally-backend/pkg/pagination"
)

const maxSearchLength = 120

func parsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func searchQuery(r *http.Request) string {
	return validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength)
}
