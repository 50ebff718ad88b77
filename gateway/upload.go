package gateway

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"alightgram/interceptor"
	"alightgram/media"
	"alightgram/service"
)

// readUpload pulls the multipart "file" field. The caller closes the body.
func (g *Gateway) readUpload(w http.ResponseWriter, r *http.Request) (media.File, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, g.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(g.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return media.File{}, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return media.File{}, nil, false
	}

	return media.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, func() { _ = file.Close() }, true
}

func (g *Gateway) handleUpload(w http.ResponseWriter, r *http.Request) {
	if g.host == nil {
		writeError(w, http.StatusServiceUnavailable, "media uploads are not configured")
		return
	}

	file, closeFile, ok := g.readUpload(w, r)
	if !ok {
		return
	}
	defer closeFile()

	url, err := g.host.Upload(r.Context(), file)
	if err != nil {
		g.uploadFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"secure_url": url})
}

func (g *Gateway) handleProfilePhoto(w http.ResponseWriter, r *http.Request) {
	principal, err := interceptor.GetPrincipalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	file, closeFile, ok := g.readUpload(w, r)
	if !ok {
		return
	}
	defer closeFile()

	profile, err := g.profiles.UpdatePhoto(r.Context(), principal.UID, file)
	if err != nil {
		g.uploadFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (g *Gateway) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, media.ErrEmptyUpload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		g.logger.WithError(err).WithFields(logrus.Fields{"uri": r.RequestURI}).Error("Media upload failed")
		writeError(w, http.StatusBadGateway, "upload failed")
	}
}
