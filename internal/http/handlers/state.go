package handlers

import (
	"memegen/internal/session"
	"memegen/internal/workflow"
)

type imageInfo struct {
	Name       string `json:"name"`
	MediaType  string `json:"media_type"`
	Size       int64  `json:"size"`
	Preview    string `json:"preview"`
	PreviewURL string `json:"preview_url"`
}

type resultInfo struct {
	MediaType   string `json:"media_type"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url"`
}

type stateResponse struct {
	SessionID string      `json:"session_id"`
	Phase     string      `json:"phase"`
	Style     string      `json:"style"`
	Note      string      `json:"note"`
	Busy      bool        `json:"busy"`
	Image     *imageInfo  `json:"image,omitempty"`
	Result    *resultInfo `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	Notice    string      `json:"notice,omitempty"`
}

func sessionPath(id string) string {
	return "/v1/sessions/" + id
}

func newStateResponse(sess *session.Session, s workflow.State) stateResponse {
	out := stateResponse{
		SessionID: sess.ID,
		Phase:     string(s.Phase()),
		Style:     s.StyleID,
		Note:      s.Note,
		Busy:      s.Busy,
		Error:     s.Error,
		Notice:    s.Notice,
	}
	if s.Image != nil {
		out.Image = &imageInfo{
			Name:       s.Image.File.Name(),
			MediaType:  s.Image.File.MediaType(),
			Size:       s.Image.File.Size(),
			Preview:    s.Image.Preview,
			PreviewURL: sessionPath(sess.ID) + "/preview",
		}
	}
	if s.Result != nil {
		out.Result = &resultInfo{
			MediaType:   s.Result.MediaType,
			Size:        len(s.Result.Data),
			DownloadURL: sessionPath(sess.ID) + "/result",
		}
	}
	return out
}
