package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

const (
	baseWorkspaceDir = "/tmp/hireloop/workers"
	labelManaged     = "hireloop.managed"
	labelWorkerID    = "hireloop.worker_id"
	workerNetwork    = "bridge"
	workerPrefix     = "hireloop-worker-"
)

// Manager runs browser workers as Docker containers. Workers fill
// application forms, so unlike batch jobs they get outbound network access
// but a read-only root filesystem.
type Manager struct {
	cli *client.Client
}

func NewManager() (*Manager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Manager{cli: cli}, nil
}

var _ ports.WorkerManager = (*Manager)(nil)

func (m *Manager) Spawn(ctx context.Context, spec domain.WorkerSpec) (domain.WorkerID, error) {
	id := domain.WorkerID(uuid.New().String())

	workspaceDir := filepath.Join(baseWorkspaceDir, string(id))
	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		return "", fmt.Errorf("create workspace dir: %w", err)
	}

	envSlice := []string{
		"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
	}
	for k, v := range spec.Env {
		envSlice = append(envSlice, fmt.Sprintf("%s=%s", k, v))
	}

	labels := map[string]string{
		labelManaged:  "true",
		labelWorkerID: string(id),
	}
	for k, v := range spec.Tags {
		labels[k] = v
	}

	cfg := &container.Config{
		Image:  spec.Image,
		Cmd:    spec.Command,
		Env:    envSlice,
		Tty:    false,
		Labels: labels,
	}

	mounts := []mount.Mount{{
		Type:   mount.TypeBind,
		Source: workspaceDir,
		Target: "/workspace",
	}}
	for host, target := range spec.BindMounts {
		mounts = append(mounts, mount.Mount{Type: mount.TypeBind, Source: host, Target: target})
	}

	hostCfg := &container.HostConfig{
		NetworkMode: workerNetwork,
		Mounts:      mounts,
		Resources: container.Resources{
			NanoCPUs: int64(spec.ResourceCPU * 1e9),
			Memory:   spec.ResourceMem,
		},
		ReadonlyRootfs: true,
		Tmpfs: map[string]string{
			"/tmp": "rw,noexec,nosuid,size=128m",
		},
	}

	name := workerPrefix + string(id)
	resp, err := m.cli.ContainerCreate(ctx, cfg, hostCfg, &network.NetworkingConfig{}, nil, name)
	if client.IsErrNotFound(err) {
		reader, pullErr := m.cli.ImagePull(ctx, spec.Image, image.PullOptions{})
		if pullErr != nil {
			m.cleanup(workspaceDir)
			return "", fmt.Errorf("pull image %s: %w", spec.Image, pullErr)
		}
		_, _ = io.Copy(io.Discard, reader)
		reader.Close()
		resp, err = m.cli.ContainerCreate(ctx, cfg, hostCfg, &network.NetworkingConfig{}, nil, name)
	}
	if err != nil {
		m.cleanup(workspaceDir)
		return "", fmt.Errorf("create container: %w", err)
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		m.cleanup(workspaceDir)
		return "", fmt.Errorf("start container: %w", err)
	}

	return id, nil
}

func (m *Manager) Kill(ctx context.Context, id domain.WorkerID) error {
	err := m.cli.ContainerRemove(ctx, workerPrefix+string(id), container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("remove container: %w", err)
	}
	m.cleanup(filepath.Join(baseWorkspaceDir, string(id)))
	return nil
}

func (m *Manager) List(ctx context.Context) ([]domain.Worker, error) {
	containers, err := m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: makeFilters(map[string]string{"label": labelManaged + "=true"}),
	})
	if err != nil {
		return nil, err
	}

	var workers []domain.Worker
	for _, c := range containers {
		idStr := c.Labels[labelWorkerID]
		if idStr == "" {
			continue
		}

		status := domain.HealthStatusUnknown
		switch c.State {
		case "running":
			status = domain.HealthStatusHealthy
		case "created":
			status = domain.HealthStatusStarting
		case "exited", "dead":
			status = domain.HealthStatusExited
		}

		workers = append(workers, domain.Worker{
			ID:     domain.WorkerID(idStr),
			Status: status,
			Metadata: map[string]string{
				"docker_id": c.ID,
				"image":     c.Image,
			},
		})
	}

	return workers, nil
}

// GetLogs streams the worker's combined stdout/stderr; the caller closes it.
func (m *Manager) GetLogs(ctx context.Context, id domain.WorkerID) (io.ReadCloser, error) {
	rc, err := m.cli.ContainerLogs(ctx, workerPrefix+string(id), container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if client.IsErrNotFound(err) {
		return nil, domain.ErrWorkerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("container logs: %w", err)
	}
	return rc, nil
}

// GetWorkerIP returns the worker's address on the bridge network so the
// submitter can talk to its control endpoint.
func (m *Manager) GetWorkerIP(ctx context.Context, id domain.WorkerID) (string, error) {
	inspect, err := m.cli.ContainerInspect(ctx, workerPrefix+string(id))
	if client.IsErrNotFound(err) {
		return "", domain.ErrWorkerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("inspect container: %w", err)
	}
	if inspect.NetworkSettings == nil {
		return "", fmt.Errorf("worker %s has no network settings", id)
	}
	if net, ok := inspect.NetworkSettings.Networks[workerNetwork]; ok && net.IPAddress != "" {
		return net.IPAddress, nil
	}
	for _, net := range inspect.NetworkSettings.Networks {
		if net.IPAddress != "" {
			return net.IPAddress, nil
		}
	}
	return "", fmt.Errorf("worker %s has no ip address", id)
}

func (m *Manager) cleanup(paths ...string) {
	for _, p := range paths {
		_ = os.RemoveAll(p)
	}
}

func makeFilters(m map[string]string) filters.Args {
	args := filters.NewArgs()
	for k, v := range m {
		args.Add(k, v)
	}
	return args
}
