package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"memegen/internal/domain"
	"memegen/internal/encoder"
)

// Result downloads the generated meme as PNG. Results the service returned in
// another format are transcoded; undecodable ones are served as-is.
func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	snap := sess.Controller.Snapshot()
	if snap.Result == nil {
		a.error(w, http.StatusNotFound, "not_found", "no result available")
		return
	}

	data, mediaType := snap.Result.Data, domain.MediaTypePNG
	converted, err := encoder.ToPNG(*snap.Result)
	if err != nil {
		a.Logger.Warn().Err(err).Str("session_id", sess.ID).Msg("http: serving result without transcoding")
		mediaType = domain.NormalizeMediaType(snap.Result.MediaType)
	} else {
		data = converted
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "meme"+encoder.ExtensionForMIME(mediaType)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
