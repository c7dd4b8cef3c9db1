package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type manifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose"`
}

type webManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	ThemeColor      string         `json:"theme_color"`
	BackgroundColor string         `json:"background_color"`
	Orientation     string         `json:"orientation"`
	Scope           string         `json:"scope"`
	Icons           []manifestIcon `json:"icons"`
}

var pwaManifest = webManifest{
	Name:            "AI Vision Assistant for Blind Users",
	ShortName:       "AIVision",
	Description:     "AI-powered vision assistance with camera analysis",
	StartURL:        "/",
	Display:         "standalone",
	ThemeColor:      "#2196F3",
	BackgroundColor: "#ffffff",
	Orientation:     "portrait",
	Scope:           "/",
	Icons: []manifestIcon{
		{Src: "/static/icon-192.png", Sizes: "192x192", Type: "image/png", Purpose: "any maskable"},
		{Src: "/static/icon-512.png", Sizes: "512x512", Type: "image/png", Purpose: "any maskable"},
	},
}

func manifest(c *gin.Context) {
	c.JSON(http.StatusOK, pwaManifest)
}
