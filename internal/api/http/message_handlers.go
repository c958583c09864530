package http

import (
	"net/http"

	"github.com/mind-engage/satportal/internal/messaging"
	rbac "github.com/mind-engage/satportal/internal/rbac"
)

func SendMessageHandler(svc *messaging.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m messaging.Message
		if !bindJSON(w, r, &m) {
			return
		}
		sent, err := svc.Send(r.Context(), m, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": sent.ID})
	}
}

func ListMessagesHandler(svc *messaging.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Inbox(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
