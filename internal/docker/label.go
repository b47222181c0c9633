package docker

import (
	"fmt"
	"strings"
	"time"
)

// Label keys applied to every toolchain container. Containers are removed
// as soon as their command finishes, so labels only matter when a run was
// killed before it could clean up.
const (
	// LabelPrefix namespaces our labels away from Compose and VS Code ones.
	LabelPrefix = "cordova-wrap."

	// LabelManagedBy identifies containers created by this tool.
	// Key: "cordova-wrap.managed-by", Value: always ManagedByValue.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelSession groups the containers of one executor instance.
	LabelSession = LabelPrefix + "session"

	// LabelWorkdir stores the host directory mounted at /workspace.
	LabelWorkdir = LabelPrefix + "workdir"

	// LabelCommand stores the command line the container runs.
	LabelCommand = LabelPrefix + "command"

	// LabelCreatedAt stores the RFC3339 creation time.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the value of LabelManagedBy on every container we create.
const ManagedByValue = "cordova-wrap"

// ToolchainContainer describes a container created by an Executor.
type ToolchainContainer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Session   string    `json:"session"`
	Workdir   string    `json:"workdir"`
	Command   string    `json:"command"`
	CreatedAt time.Time `json:"createdAt"`
}

// BuildLabels returns the label map for a container that runs command
// with workdir mounted.
func BuildLabels(session, workdir, command string, createdAt time.Time) map[string]string {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelSession:   session,
		LabelCommand:   command,
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
	if workdir != "" {
		labels[LabelWorkdir] = workdir
	}
	return labels
}

// ParseLabels reconstructs container metadata from labels. It is the
// inverse of BuildLabels; ID, Name and State are filled in by the caller.
func ParseLabels(labels map[string]string) (*ToolchainContainer, error) {
	var missing []string
	for _, key := range []string{LabelManagedBy, LabelSession, LabelCreatedAt} {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	return &ToolchainContainer{
		Session:   labels[LabelSession],
		Workdir:   labels[LabelWorkdir],
		Command:   labels[LabelCommand],
		CreatedAt: createdAt,
	}, nil
}
