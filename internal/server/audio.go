package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) getAudio(responseWriter http.ResponseWriter, request *http.Request) error {
	key := mux.Vars(request)["key"]

	data, err := s.store.Download(request.Context(), key)
	if err != nil {
		return NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("audio %q not found", key), err)
	}

	responseWriter.Header().Set("Content-Type", "audio/wav")
	responseWriter.WriteHeader(http.StatusOK)

	_, err = responseWriter.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write audio response: %w", err)
	}

	return nil
}
