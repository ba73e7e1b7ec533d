package handler

import "nipcheck/internal/nip/service"

// ValidateResponse is the HTTP response for GET /api/validate/nip/{input}.
type ValidateResponse struct {
	IsValid bool `json:"isValid"`
}

// GuessResponse is the HTTP response for GET /api/guess/nip/{input}.
type GuessResponse struct {
	Possibilities []string `json:"possibilities"`
}

func fromValidateResult(res *service.ValidateResult) *ValidateResponse {
	return &ValidateResponse{IsValid: res.IsValid}
}

func fromGuessResult(res *service.GuessResult) *GuessResponse {
	possibilities := res.Possibilities
	if possibilities == nil {
		possibilities = []string{}
	}
	return &GuessResponse{Possibilities: possibilities}
}

// pageData feeds templates/index.html.tmpl.
type pageData struct {
	Input         string
	Possibilities []string
	Searched      bool
	Error         string
	Wildcard      string
	Max           int
}
