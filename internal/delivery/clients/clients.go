package clients

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pylos/internal/domain/client"
	apperrors "pylos/internal/errors"
	"pylos/internal/httpresponse"
	clientsuc "pylos/internal/usecase/clients"
	"pylos/internal/utils"
)

type ClientsHandler struct {
	clients *clientsuc.ClientsUseCase
	log     *zap.SugaredLogger
}

func NewClientsHandler(clients *clientsuc.ClientsUseCase, log *zap.SugaredLogger) *ClientsHandler {
	return &ClientsHandler{
		clients: clients,
		log:     log,
	}
}

// HandleRegister answers POST /clients with the websocket url of the client.
func (h *ClientsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req client.RegisterRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Warnw("bad register request", "error", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.clients.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrBadClientUUID) {
			httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Errorw("register failed", "client", req.UserUUID, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}

	h.log.Infow("client registered", "client", req.UserUUID, "name", req.UserName)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, client.RegisterResponse{URL: url})
}

func (h *ClientsHandler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	clientUUID := chi.URLParam(r, "clientUUID")
	if err := h.clients.Unregister(r.Context(), clientUUID); err != nil {
		h.log.Errorw("unregister failed", "client", clientUUID, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	h.log.Infow("client unregistered", "client", clientUUID)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (h *ClientsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, "ok")
}
