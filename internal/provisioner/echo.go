// Package provisioner turns an uploaded template source into workspace
// resources. Sources are declarative YAML manifests, either uploaded as-is or
// packed into a tar archive next to a README.md.
package provisioner

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	wsdecksdk "wsdeck/sdk/go"
)

// MaxSourceSize bounds an uploaded template source.
const MaxSourceSize = 10 << 20

// Manifest is a parsed template source.
type Manifest struct {
	Readme    string     `yaml:"readme"`
	Fail      string     `yaml:"fail"`
	Resources []Resource `yaml:"resources"`
}

type Resource struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Icon        string     `yaml:"icon"`
	Hide        bool       `yaml:"hide"`
	DailyCost   int32      `yaml:"daily_cost"`
	Transitions []string   `yaml:"transitions"`
	Metadata    []Metadata `yaml:"metadata"`
	Agents      []Agent    `yaml:"agents"`
}

type Metadata struct {
	Key       string `yaml:"key"`
	Value     string `yaml:"value"`
	Sensitive bool   `yaml:"sensitive"`
}

type Agent struct {
	Name                     string            `yaml:"name"`
	OS                       string            `yaml:"os"`
	Arch                     string            `yaml:"arch"`
	Directory                string            `yaml:"directory"`
	StartupScript            string            `yaml:"startup_script"`
	Env                      map[string]string `yaml:"env"`
	ConnectionTimeoutSeconds int32             `yaml:"connection_timeout_seconds"`
	TroubleshootingURL       string            `yaml:"troubleshooting_url"`
	Apps                     []App             `yaml:"apps"`
}

type App struct {
	Slug         string `yaml:"slug"`
	DisplayName  string `yaml:"display_name"`
	Command      string `yaml:"command"`
	Icon         string `yaml:"icon"`
	Subdomain    bool   `yaml:"subdomain"`
	SharingLevel string `yaml:"sharing_level"`
	Healthcheck  struct {
		URL       string `yaml:"url"`
		Interval  int32  `yaml:"interval"`
		Threshold int32  `yaml:"threshold"`
	} `yaml:"healthcheck"`
}

// Parse reads a template source of the given content type.
func Parse(contentType string, content []byte) (Manifest, error) {
	switch contentType {
	case wsdecksdk.ContentTypeYAML:
		return parseYAML(content, "")
	case wsdecksdk.ContentTypeTar:
		return parseTar(content)
	default:
		return Manifest{}, fmt.Errorf("unsupported template source type %q", contentType)
	}
}

func parseYAML(content []byte, readme string) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Readme == "" {
		m.Readme = readme
	}
	return m, m.validate()
}

func parseTar(content []byte) (Manifest, error) {
	var manifest, readme []byte
	tr := tar.NewReader(bytes.NewReader(content))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Manifest{}, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := path.Base(hdr.Name)
		switch {
		case manifest == nil && (strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")):
			if manifest, err = io.ReadAll(io.LimitReader(tr, MaxSourceSize)); err != nil {
				return Manifest{}, err
			}
		case strings.EqualFold(name, "README.md"):
			if readme, err = io.ReadAll(io.LimitReader(tr, MaxSourceSize)); err != nil {
				return Manifest{}, err
			}
		}
	}
	if manifest == nil {
		return Manifest{}, errors.New("archive has no yaml manifest")
	}
	return parseYAML(manifest, string(readme))
}

func (m Manifest) validate() error {
	seen := map[string]bool{}
	for i, r := range m.Resources {
		if r.Name == "" || r.Type == "" {
			return fmt.Errorf("resources[%d]: name and type are required", i)
		}
		key := r.Type + "." + r.Name
		if seen[key] {
			return fmt.Errorf("resources[%d]: duplicate resource %s", i, key)
		}
		seen[key] = true
		for _, t := range r.Transitions {
			if _, err := wsdecksdk.ParseEnum("transition", t, wsdecksdk.WorkspaceTransitions); err != nil {
				return fmt.Errorf("resources[%d]: %w", i, err)
			}
		}
		for j, a := range r.Agents {
			for k, app := range a.Apps {
				if app.Slug == "" {
					return fmt.Errorf("resources[%d].agents[%d].apps[%d]: slug is required", i, j, k)
				}
				if app.SharingLevel != "" {
					if _, err := wsdecksdk.ParseEnum("sharing_level", app.SharingLevel, wsdecksdk.WorkspaceAppSharingLevels); err != nil {
						return fmt.Errorf("resources[%d].agents[%d].apps[%d]: %w", i, j, k, err)
					}
				}
			}
		}
	}
	return nil
}

// Plan returns the resources that exist after transition. Resources with no
// transitions listed exist while started and stopped; nothing survives a
// delete.
func (m Manifest) Plan(jobID uuid.UUID, transition wsdecksdk.WorkspaceTransition, now time.Time) []wsdecksdk.WorkspaceResource {
	res := []wsdecksdk.WorkspaceResource{}
	if transition == wsdecksdk.WorkspaceTransitionDelete {
		return res
	}
	for _, r := range m.Resources {
		transitions := r.Transitions
		if len(transitions) == 0 {
			transitions = []string{string(wsdecksdk.WorkspaceTransitionStart), string(wsdecksdk.WorkspaceTransitionStop)}
		}
		if !slices.Contains(transitions, string(transition)) {
			continue
		}
		resource := wsdecksdk.WorkspaceResource{
			ID:         uuid.New(),
			CreatedAt:  now,
			JobID:      jobID,
			Transition: transition,
			Type:       r.Type,
			Name:       r.Name,
			Hide:       r.Hide,
			Icon:       r.Icon,
			DailyCost:  r.DailyCost,
		}
		for _, md := range r.Metadata {
			resource.Metadata = append(resource.Metadata, wsdecksdk.WorkspaceResourceMetadata{Key: md.Key, Value: md.Value, Sensitive: md.Sensitive})
		}
		// Agents only run while the workspace is started.
		if transition == wsdecksdk.WorkspaceTransitionStart {
			for _, a := range r.Agents {
				resource.Agents = append(resource.Agents, a.toAgent(resource.ID, now))
			}
		}
		res = append(res, resource)
	}
	return res
}

// DailyCost sums the cost of the planned resources.
func DailyCost(resources []wsdecksdk.WorkspaceResource) int32 {
	var total int32
	for _, r := range resources {
		total += r.DailyCost
	}
	return total
}

func (a Agent) toAgent(resourceID uuid.UUID, now time.Time) wsdecksdk.WorkspaceAgent {
	agent := wsdecksdk.WorkspaceAgent{
		ID:                       uuid.New(),
		CreatedAt:                now,
		UpdatedAt:                now,
		Status:                   wsdecksdk.WorkspaceAgentConnecting,
		Name:                     a.Name,
		ResourceID:               resourceID,
		Architecture:             a.Arch,
		EnvironmentVariables:     a.Env,
		OperatingSystem:          a.OS,
		ConnectionTimeoutSeconds: a.ConnectionTimeoutSeconds,
		TroubleshootingURL:       a.TroubleshootingURL,
		Apps:                     []wsdecksdk.WorkspaceApp{},
	}
	if agent.EnvironmentVariables == nil {
		agent.EnvironmentVariables = map[string]string{}
	}
	if agent.ConnectionTimeoutSeconds == 0 {
		agent.ConnectionTimeoutSeconds = 120
	}
	if a.Directory != "" {
		agent.Directory = wsdecksdk.Ptr(a.Directory)
	}
	if a.StartupScript != "" {
		agent.StartupScript = wsdecksdk.Ptr(a.StartupScript)
	}
	for _, app := range a.Apps {
		agent.Apps = append(agent.Apps, app.toApp())
	}
	return agent
}

func (a App) toApp() wsdecksdk.WorkspaceApp {
	app := wsdecksdk.WorkspaceApp{
		ID:           uuid.New(),
		Slug:         a.Slug,
		DisplayName:  a.DisplayName,
		Subdomain:    a.Subdomain,
		SharingLevel: wsdecksdk.WorkspaceAppSharingLevel(a.SharingLevel),
		Healthcheck: wsdecksdk.Healthcheck{
			URL:       a.Healthcheck.URL,
			Interval:  a.Healthcheck.Interval,
			Threshold: a.Healthcheck.Threshold,
		},
		Health: wsdecksdk.WorkspaceAppHealthDisabled,
	}
	if app.SharingLevel == "" {
		app.SharingLevel = wsdecksdk.WorkspaceAppSharingLevelOwner
	}
	if app.DisplayName == "" {
		app.DisplayName = a.Slug
	}
	if a.Command != "" {
		app.Command = wsdecksdk.Ptr(a.Command)
	}
	if a.Icon != "" {
		app.Icon = wsdecksdk.Ptr(a.Icon)
	}
	if a.Healthcheck.URL != "" {
		app.Health = wsdecksdk.WorkspaceAppHealthInitializing
	}
	return app
}
