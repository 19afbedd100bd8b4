package report

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/JusciAvelino/Meta-IR/internal/experiment"
	"github.com/JusciAvelino/Meta-IR/internal/jobs"
)

// Manifest records what a run did: its configuration, the fate of every
// dataset job and the files it wrote.
type Manifest struct {
	RunID     string             `yaml:"run_id"`
	Command   string             `yaml:"command"`
	CreatedAt time.Time          `yaml:"created_at"`
	Duration  time.Duration      `yaml:"duration"`
	Config    *experiment.Config `yaml:"config"`
	Jobs      []JobSummary       `yaml:"jobs"`
	Files     []string           `yaml:"files"`
}

type JobSummary struct {
	ID       string         `yaml:"id"`
	Type     string         `yaml:"type"`
	Dataset  string         `yaml:"dataset"`
	Status   jobs.JobStatus `yaml:"status"`
	Duration time.Duration  `yaml:"duration"`
	Error    string         `yaml:"error,omitempty"`
}

func NewManifest(command string, cfg *experiment.Config) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Command:   command,
		CreatedAt: time.Now(),
		Config:    cfg,
	}
}

// Finish stamps the duration and copies the job outcomes.
func (m *Manifest) Finish(manager *jobs.Manager) {
	m.Duration = time.Since(m.CreatedAt)
	m.Jobs = m.Jobs[:0]
	if manager == nil {
		return
	}
	for _, j := range manager.ListJobs() {
		s := JobSummary{
			ID:       j.ID,
			Type:     j.Type,
			Dataset:  j.Dataset,
			Status:   j.GetStatus(),
			Duration: j.Duration(),
		}
		if err := j.GetError(); err != nil {
			s.Error = err.Error()
		}
		m.Jobs = append(m.Jobs, s)
	}
}

func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	raw, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}
	return errors.Wrap(os.WriteFile(path, raw, 0o644), "write manifest")
}

func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return &m, nil
}
