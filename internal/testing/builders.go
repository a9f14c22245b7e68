package testing

import (
	"github.com/imamik/asctl/internal/config"
	"github.com/imamik/asctl/internal/model"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with defaults applied.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: *config.Default()}
}

// WithServer sets the server base URL.
func (b *ConfigBuilder) WithServer(url string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Server.URL = url
	return newBuilder
}

// WithCredentials sets the login credentials.
func (b *ConfigBuilder) WithCredentials(email, password string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Credentials = config.CredentialsConfig{Email: email, Password: password}
	return newBuilder
}

// WithDownloadDir sets the download directory.
func (b *ConfigBuilder) WithDownloadDir(dir string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Download.Dir = dir
	return newBuilder
}

// WithArtifactBucket enables the S3 mirror.
func (b *ConfigBuilder) WithArtifactBucket(bucket string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Artifacts.Bucket = bucket
	if newBuilder.cfg.Artifacts.Region == "" {
		newBuilder.cfg.Artifacts.Region = config.DefaultS3Region
	}
	return newBuilder
}

// Build returns a copy of the configuration.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.cfg
	return &cfg
}

func (b *ConfigBuilder) clone() *ConfigBuilder {
	return &ConfigBuilder{cfg: b.cfg}
}

// InstanceBuilder provides a fluent interface for constructing instances.
type InstanceBuilder struct {
	in model.Instance
}

// NewInstanceBuilder creates an unconfigured VPN instance.
func NewInstanceBuilder(id string) *InstanceBuilder {
	return &InstanceBuilder{in: model.Instance{
		ID:    id,
		Mode:  model.ModeVPN,
		Type:  "1",
		State: model.StateUnconfigured,
	}}
}

// VPN switches to VPN mode on port.
func (b *InstanceBuilder) VPN(port int) *InstanceBuilder {
	n := *b
	n.in.Mode = model.ModeVPN
	n.in.IP = ""
	n.in.Port = port
	return &n
}

// PublicIP switches to public IP mode.
func (b *InstanceBuilder) PublicIP(ip string, port int) *InstanceBuilder {
	n := *b
	n.in.Mode = model.ModePublicIP
	n.in.IP = ip
	n.in.Port = port
	return &n
}

// Via sets the attachment point.
func (b *InstanceBuilder) Via(ap string) *InstanceBuilder {
	n := *b
	n.in.AttachmentPoint = ap
	return &n
}

// InState sets the lifecycle state.
func (b *InstanceBuilder) InState(s model.LifecycleState) *InstanceBuilder {
	n := *b
	n.in.State = s
	return &n
}

// Build returns the instance.
func (b *InstanceBuilder) Build() model.Instance {
	return b.in
}
