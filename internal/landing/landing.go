package landing

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

//go:embed templates/*.html
var templateFS embed.FS

// Link is a labelled href.
type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Content is the copy of the landing page.
type Content struct {
	Site string `yaml:"site"`
	Hero struct {
		Badge     string `yaml:"badge"`
		Title     string `yaml:"title"`
		Highlight string `yaml:"highlight"`
		Lead      string `yaml:"lead"`
		Primary   Link   `yaml:"primary"`
		Secondary Link   `yaml:"secondary"`
	} `yaml:"hero"`
	Features struct {
		Title string `yaml:"title"`
		Lead  string `yaml:"lead"`
		Items []struct {
			Title string `yaml:"title"`
			Text  string `yaml:"text"`
		} `yaml:"items"`
	} `yaml:"features"`
	CTA struct {
		Title  string `yaml:"title"`
		Text   string `yaml:"text"`
		Button Link   `yaml:"button"`
	} `yaml:"cta"`
}

// LoadContent decodes the embedded page copy.
func LoadContent() (Content, error) {
	var c Content
	if err := yaml.Unmarshal(contentYAML, &c); err != nil {
		return Content{}, fmt.Errorf("decode landing content: %w", err)
	}
	return c, nil
}

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Handler renders the landing and auth pages.
type Handler struct {
	content Content
}

// NewHandler loads the page copy.
func NewHandler() (*Handler, error) {
	c, err := LoadContent()
	if err != nil {
		return nil, err
	}
	return &Handler{content: c}, nil
}

// Landing handles GET /.
func (h *Handler) Landing(c *gin.Context) {
	c.HTML(http.StatusOK, "landing.html", h.content)
}

type authPage struct {
	Site         string
	SignUp       bool
	Heading      string
	Action       string
	Submit       string
	SwitchPrompt string
	SwitchLabel  string
	SwitchHref   string
}

// Auth handles GET /auth; ?mode=signup shows the sign-up form.
func (h *Handler) Auth(c *gin.Context) {
	page := authPage{
		Site:         h.content.Site,
		Heading:      "Welcome Back",
		Action:       "/auth/signin",
		Submit:       "Sign In",
		SwitchPrompt: "Don't have an account?",
		SwitchLabel:  "Sign Up",
		SwitchHref:   "/auth?mode=signup",
	}
	if c.Query("mode") == "signup" {
		page.SignUp = true
		page.Heading = "Create Account"
		page.Action = "/auth/signup"
		page.Submit = "Sign Up"
		page.SwitchPrompt = "Already have an account?"
		page.SwitchLabel = "Sign In"
		page.SwitchHref = "/auth"
	}
	c.HTML(http.StatusOK, "auth.html", page)
}
