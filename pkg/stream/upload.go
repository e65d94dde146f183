package stream

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
)

// multipartBody streams the upload form through a pipe so the file is never
// held in memory. The returned reader must be closed by the caller.
func multipartBody(req UploadRequest) (*io.PipeReader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, req))
	}()

	return pr, mw.FormDataContentType()
}

func writeUploadForm(mw *multipart.Writer, req UploadRequest) error {
	fields := [][2]string{{"session_id", req.SessionID}}
	if req.API.APIKey != "" {
		fields = append(fields, [2]string{"api_key", req.API.APIKey})
	}
	if req.API.BaseURL != "" {
		fields = append(fields, [2]string{"base_url", req.API.BaseURL})
	}
	if req.API.Model != "" {
		fields = append(fields, [2]string{"model", req.API.Model})
	}
	if req.SystemPrompt != "" {
		fields = append(fields, [2]string{"system_prompt", req.SystemPrompt})
	}
	if req.Search.Enabled {
		fields = append(fields, [2]string{"search_enabled", "true"})
	}
	fields = append(fields, [2]string{"search_provider", req.Search.Provider})
	if req.Search.APIKey != "" {
		fields = append(fields, [2]string{"search_api_key", req.Search.APIKey})
	}
	fields = append(fields, [2]string{"search_result_count", strconv.Itoa(req.Search.ResultCount)})

	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	part, err := mw.CreateFormFile("file", req.FileName)
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}

	return mw.Close()
}
