package inbound

import "github.com/shandysiswandi/iamportal/internal/enrollment/usecase"

type PinInputRequest struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

type PinKeyRequest struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
}

type SubmitRequest struct {
	Code string `json:"code"`
}

type StateResponse struct {
	Phase         string   `json:"phase"`
	Step          string   `json:"step"`
	ScannableCode string   `json:"scannable_code,omitempty"`
	LastError     string   `json:"last_error,omitempty"`
	LastErrorText string   `json:"last_error_text,omitempty"`
	Focus         int      `json:"focus"`
	Cells         []string `json:"cells"`
	Pending       bool     `json:"pending"`
}

type SubmitResponse struct {
	StateResponse
	IsValid bool `json:"is_valid"`
}

func (h *HTTPEndpoint) toStateResponse(lang string, out *usecase.StateOutput) StateResponse {
	resp := StateResponse{
		Phase:         out.Phase.String(),
		Step:          out.Step.String(),
		ScannableCode: out.ScannableCode,
		LastError:     out.LastError,
		Focus:         out.Focus,
		Cells:         out.Cells[:],
		Pending:       out.Pending,
	}
	if out.LastError != "" {
		resp.LastErrorText = h.trans.T(lang, out.LastError)
	}
	return resp
}
