// Package trust admits externally built plugin packages. A package is only
// installed once it has been extracted, structurally checked, verified
// against the organization's trusted key, checksummed, checked for name
// collisions and loaded by the running process.
package trust

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/store"
	"github.com/wolfeidau/formulary/internal/telemetry"
	"github.com/wolfeidau/formulary/internal/variable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	packageFileName = "package.tar.zst"
	contentsDirName = "contents"
)

// Catalogue reports every token an organization already uses.
type Catalogue interface {
	AllOrganizationTokens(ctx context.Context, orgID uuid.UUID) (variable.Set, error)
}

// Pipeline runs plugin installs. It is safe for concurrent use; every
// install works in its own scratch directory.
type Pipeline struct {
	cfg       Config
	orgs      store.OrganizationStore
	plugins   store.PluginStore
	catalogue Catalogue
	keys      KeySource
	loader    Loader
}

// NewPipeline creates a trust pipeline. cfg defaults are applied before
// validation.
func NewPipeline(
	cfg Config,
	orgs store.OrganizationStore,
	plugins store.PluginStore,
	catalogue Catalogue,
	keys KeySource,
	loader Loader,
) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trust config: %w", err)
	}
	if loader == nil {
		loader = GoPluginLoader{}
	}

	return &Pipeline{
		cfg:       cfg,
		orgs:      orgs,
		plugins:   plugins,
		catalogue: catalogue,
		keys:      keys,
		loader:    loader,
	}, nil
}

// install tracks one run through the pipeline.
type install struct {
	orgID   uuid.UUID
	name    string
	scratch string
	stage   Stage

	props      []byte
	signature  []byte
	properties models.PluginProperties
	token      variable.Token
}

func (in *install) path(name string) string {
	return filepath.Join(in.scratch, contentsDirName, name)
}

// Install verifies pkg and stores it as a plugin of orgID. name overrides
// the name declared in the package properties when not empty. Rejections
// are returned as *InvalidPluginError; the scratch directory is removed on
// every return path.
func (p *Pipeline) Install(ctx context.Context, pkg io.Reader, orgID uuid.UUID, name string) (plugin *models.Plugin, err error) {
	started := time.Now()

	ctx, span := telemetry.Tracer().Start(ctx, "trust.Install")
	defer span.End()
	span.SetAttributes(attribute.String("org_id", orgID.String()))

	logger := log.With().Str("org_id", orgID.String()).Logger()
	ctx = logger.WithContext(ctx)

	in := &install{orgID: orgID, name: name, stage: StageReceived}

	defer func() {
		var rejected *InvalidPluginError
		switch {
		case err == nil:
			telemetry.GetMetrics().RecordPluginInstall(ctx, started, "")
			logger.Info().Str("plugin", plugin.Name).Dur("duration", time.Since(started)).Msg("Plugin installed")
		case errors.As(err, &rejected):
			telemetry.GetMetrics().RecordPluginInstall(ctx, started, string(rejected.Stage))
			span.SetAttributes(attribute.String("stage", string(rejected.Stage)))
			span.SetStatus(codes.Error, err.Error())
			logger.Warn().Err(err).Str("stage", string(rejected.Stage)).Msg("Plugin rejected")
		default:
			telemetry.GetMetrics().RecordPluginInstall(ctx, started, string(in.stage))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error().Err(err).Str("stage", string(in.stage)).Msg("Plugin install failed")
		}
	}()

	org, err := p.orgs.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}

	scratch, cleanup, err := p.allocateScratch()
	if err != nil {
		return nil, err
	}
	defer cleanup()
	in.scratch = scratch

	steps := []struct {
		stage Stage
		run   func(context.Context, *install) error
	}{
		{StageExtracted, func(ctx context.Context, in *install) error { return p.extract(ctx, in, pkg) }},
		{StageStructureChecked, p.checkStructure},
		{StageSignatureVerified, func(ctx context.Context, in *install) error { return p.verifySignature(ctx, in, org) }},
		{StageChecksumVerified, p.verifyChecksum},
		{StageNameChecked, p.checkName},
		{StageRuntimeChecked, p.checkRuntime},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in.stage = step.stage
		if err := step.run(ctx, in); err != nil {
			return nil, err
		}
		logger.Debug().Str("stage", string(step.stage)).Msg("Plugin stage passed")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in.stage = StageInstalled
	return p.persist(ctx, in)
}

func (p *Pipeline) allocateScratch() (string, func(), error) {
	dir := filepath.Join(p.cfg.ScratchDir, "plugin-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("Failed to remove scratch directory")
		}
	}, nil
}

func (p *Pipeline) extract(_ context.Context, in *install, pkg io.Reader) error {
	pkgPath := filepath.Join(in.scratch, packageFileName)

	f, err := os.OpenFile(pkgPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create package file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(pkg, p.cfg.MaxPackageBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}
	if n > p.cfg.MaxPackageBytes {
		return reject(StageExtracted, ErrCorruptPackage,
			fmt.Errorf("package exceeds %d bytes", p.cfg.MaxPackageBytes))
	}

	contents := filepath.Join(in.scratch, contentsDirName)
	if err := os.Mkdir(contents, 0o700); err != nil {
		return fmt.Errorf("failed to create contents directory: %w", err)
	}

	if err := extractPackage(pkgPath, contents, p.cfg.MaxPackageBytes); err != nil {
		reason := ErrCorruptPackage
		if errors.Is(err, ErrUnexpectedArtifact) {
			reason = ErrUnexpectedArtifact
		}
		return reject(StageExtracted, reason, err)
	}
	return nil
}

func (p *Pipeline) checkStructure(_ context.Context, in *install) error {
	if err := checkStructure(filepath.Join(in.scratch, contentsDirName)); err != nil {
		return reject(StageStructureChecked, ErrMissingArtifact, err)
	}
	return nil
}

// verifySignature fetches the trusted key and verifies the properties
// signature. Key retrieval has its own stage and timeout.
func (p *Pipeline) verifySignature(ctx context.Context, in *install, org *models.Organization) error {
	kid := p.cfg.KeyID
	if org.PluginKeyID != "" {
		kid = org.PluginKeyID
	}

	in.stage = StageKeyFetched
	if kid == "" {
		return reject(StageKeyFetched, ErrKeyRetrieval, errors.New("no key identifier configured"))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.KeyFetchTimeout)
	defer cancel()

	fetchStarted := time.Now()
	pub, err := p.keys.PublicKey(fetchCtx, kid)
	telemetry.GetMetrics().RecordKeyFetch(ctx, fetchStarted, err)
	if err != nil {
		return reject(StageKeyFetched, ErrKeyRetrieval, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	in.stage = StageSignatureVerified

	in.props, err = os.ReadFile(in.path(PropertiesFile))
	if err != nil {
		return fmt.Errorf("failed to read properties: %w", err)
	}
	in.signature, err = os.ReadFile(in.path(SignatureFile))
	if err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}

	if err := VerifyProperties(in.props, in.signature, pub); err != nil {
		return reject(StageSignatureVerified, ErrUntrustedPackage, err)
	}
	return nil
}

func (p *Pipeline) verifyChecksum(_ context.Context, in *install) error {
	if err := json.Unmarshal(in.props, &in.properties); err != nil {
		return reject(StageChecksumVerified, ErrInvalidProperties, err)
	}
	switch {
	case in.properties.Name == "":
		return reject(StageChecksumVerified, ErrInvalidProperties, errors.New("name is required"))
	case in.properties.Checksum == "":
		return reject(StageChecksumVerified, ErrInvalidProperties, errors.New("checksum is required"))
	case in.properties.BuildRuntimeVersion == "":
		return reject(StageChecksumVerified, ErrInvalidProperties, errors.New("build_runtime_version is required"))
	}

	actual, err := fileChecksum(in.path(ModuleFile))
	if err != nil {
		return fmt.Errorf("failed to checksum module: %w", err)
	}

	if strings.ToLower(in.properties.Checksum) != actual {
		return reject(StageChecksumVerified, ErrChecksumMismatch,
			fmt.Errorf("declared %s, computed %s", in.properties.Checksum, actual))
	}
	return nil
}

func (p *Pipeline) checkName(ctx context.Context, in *install) error {
	name := in.name
	if name == "" {
		name = in.properties.Name
	}

	tok, err := variable.Normalize(name)
	if err != nil {
		return reject(StageNameChecked, ErrInvalidName, err)
	}

	tokens, err := p.catalogue.AllOrganizationTokens(ctx, in.orgID)
	if err != nil {
		return fmt.Errorf("failed to load organization tokens: %w", err)
	}

	if tokens.Has(tok) {
		return reject(StageNameChecked, ErrNameCollision, fmt.Errorf("%s is already defined", tok))
	}

	in.token = tok
	return nil
}

func (p *Pipeline) checkRuntime(ctx context.Context, in *install) error {
	if err := p.loader.Load(ctx, in.path(ModuleFile)); err != nil {
		return reject(StageRuntimeChecked, ErrRuntimeIncompatible,
			fmt.Errorf("built with %s, running %s: %w", in.properties.BuildRuntimeVersion, runtime.Version(), err))
	}
	return nil
}

func (p *Pipeline) persist(ctx context.Context, in *install) (*models.Plugin, error) {
	module, err := os.ReadFile(in.path(ModuleFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}

	plugin := &models.Plugin{
		PluginID:   uuid.Must(uuid.NewV7()),
		OrgID:      in.orgID,
		Name:       string(in.token),
		Properties: in.props,
		Signature:  in.signature,
		Module:     module,
		CreatedAt:  time.Now().UTC(),
	}

	if err := p.plugins.Create(ctx, plugin); err != nil {
		if errors.Is(err, store.ErrPluginAlreadyExists) {
			return nil, reject(StageInstalled, ErrNameCollision, err)
		}
		return nil, fmt.Errorf("failed to store plugin: %w", err)
	}

	return plugin, nil
}
