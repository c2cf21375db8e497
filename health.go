package belgiantrain

import (
	"net/http"
)

type healthResponse struct {
	Status        string `json:"status"`
	Entities      int    `json:"entities"`
	LastPollEpoch int64  `json:"last_poll_epoch"`
}

// handleHealth reports degraded as soon as any coordinator's last refresh
// failed; entities counts every registered sensor, disabled ones included.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, lastPoll := s.health()
	resp := healthResponse{
		Status:   status,
		Entities: s.reg.Len(),
	}
	if !lastPoll.IsZero() {
		resp.LastPollEpoch = lastPoll.Unix()
	}
	writeJSON(w, http.StatusOK, resp)
}
