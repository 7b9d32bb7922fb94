package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/duckparse"
	"github.com/japaniel/duckparse/pkg/language"
)

type dimensionInfo struct {
	Name   string `json:"name"`
	Family string `json:"family"`
}

// handleDimensions lists the dimensions a parse can be restricted to.
func (s *Server) handleDimensions(c *gin.Context) {
	dims := dimension.All()
	out := make([]dimensionInfo, len(dims))
	for i, d := range dims {
		out[i] = dimensionInfo{Name: d.String(), Family: d.Family().String()}
	}
	c.JSON(http.StatusOK, out)
}

type languageInfo struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	EngineID string `json:"engine_id"`
}

func (s *Server) handleLanguages(c *gin.Context) {
	langs := language.All()
	out := make([]languageInfo, len(langs))
	for i, l := range langs {
		out[i] = languageInfo{Code: l.ISO(), Name: l.Name(), EngineID: l.EngineID()}
	}
	c.JSON(http.StatusOK, gin.H{"default": s.parser.Language(), "languages": out})
}

type parseRequest struct {
	Text          string   `json:"text" binding:"required"`
	Language      string   `json:"language"`
	Dims          []string `json:"dims"`
	ReferenceTime string   `json:"reference_time"`
	Raw           bool     `json:"raw"`
}

// handleParse runs the parser over the request text. On /v1/parse/:dim the
// path dimension replaces any dims in the body.
func (s *Server) handleParse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, badRequest("Invalid request body", err))
		return
	}

	opts, err := callOptions(req, c.Param("dim"))
	if err != nil {
		handleError(c, err)
		return
	}

	ctx := c.Request.Context()
	if req.Raw {
		entries, err := s.parser.ParseRaw(ctx, req.Text, opts...)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
		return
	}

	entries, err := s.parser.Parse(ctx, req.Text, opts...)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func callOptions(req parseRequest, pathDim string) ([]duckparse.CallOption, error) {
	var opts []duckparse.CallOption

	if req.Language != "" {
		l, err := language.Parse(req.Language)
		if err != nil {
			return nil, err
		}
		opts = append(opts, duckparse.Language(l))
	}

	names := req.Dims
	if pathDim != "" {
		names = []string{pathDim}
	}
	if len(names) > 0 {
		dims, err := dimension.ParseList(names...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, duckparse.WithDimensions(dims...))
	}

	if req.ReferenceTime != "" {
		ref, err := duckparse.ParseReferenceTime(req.ReferenceTime)
		if err != nil {
			return nil, badRequest("Invalid reference_time", err)
		}
		opts = append(opts, duckparse.WithReferenceTime(ref))
	}
	return opts, nil
}
