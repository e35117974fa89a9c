package dockerfile

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
)

// Stage is one build target of the image. Every stage runs the same
// application; they differ only in whether the server reloads on change.
type Stage struct {
	Name   string
	Reload bool
}

func DefaultStages() []Stage {
	return []Stage{
		{Name: "develop", Reload: true},
		{Name: "staging", Reload: true},
		{Name: "prod", Reload: false},
	}
}

type Image struct {
	BaseImage   string
	AptPackages []string
	// LockInstall is the shell command that installs the project from its
	// lockfile.
	LockInstall string
	AppDir      string
	App         string
	Port        int
	Stages      []Stage
}

func DefaultImage() Image {
	return Image{
		BaseImage:   "python:3.11-slim",
		AptPackages: []string{"build-essential", "curl", "git"},
		LockInstall: "pip install --no-cache-dir pipenv && pipenv install --system --deploy",
		AppDir:      "/app/code",
		App:         "main:app",
		Port:        3000,
		Stages:      DefaultStages(),
	}
}

func (img Image) Validate() error {
	if img.BaseImage == "" {
		return errors.New("base image is required")
	}
	if img.App == "" {
		return errors.New("application is required")
	}
	if img.Port <= 0 || img.Port > 65535 {
		return fmt.Errorf("invalid port %d", img.Port)
	}
	if len(img.Stages) == 0 {
		return errors.New("at least one stage is required")
	}
	seen := map[string]bool{}
	for _, st := range img.Stages {
		if st.Name == "" {
			return errors.New("stage name is required")
		}
		if seen[st.Name] {
			return fmt.Errorf("duplicate stage %q", st.Name)
		}
		seen[st.Name] = true
	}
	return nil
}

// Command is the exec form CMD for a stage.
func (img Image) Command(st Stage) []string {
	cmd := []string{"uvicorn", img.App, "--host", "0.0.0.0", "--port", strconv.Itoa(img.Port)}
	if st.Reload {
		cmd = append(cmd, "--reload")
	}
	return cmd
}

var tmpl = template.Must(template.New("dockerfile").Funcs(template.FuncMap{
	"join":    strings.Join,
	"execCmd": execForm,
}).Parse(`{{- $img := . -}}
{{- range $i, $stage := .Stages }}
{{- if $i }}

{{ end -}}
FROM {{ $img.BaseImage }} AS {{ $stage.Name }}
{{- if $img.AptPackages }}
RUN apt-get update \
    && apt-get install -y --no-install-recommends {{ join $img.AptPackages " " }} \
    && rm -rf /var/lib/apt/lists/*
{{- end }}
WORKDIR {{ $img.AppDir }}
COPY . {{ $img.AppDir }}
{{- if $img.LockInstall }}
RUN {{ $img.LockInstall }}
{{- end }}
ENV PYTHONPATH={{ $img.AppDir }}
EXPOSE {{ $img.Port }}
CMD {{ execCmd ($img.Command $stage) }}
{{- end }}
`))

func execForm(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = strconv.Quote(a)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Render writes the multi-stage image definition.
func Render(w io.Writer, img Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	return tmpl.Execute(w, img)
}
