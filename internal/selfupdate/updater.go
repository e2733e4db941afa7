package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// binaryName is the executable packed in every release archive.
const binaryName = "ladder"

const checksumsAsset = "checksums.txt"

var (
	ErrDevBuild      = errors.New("cannot update a development build")
	ErrAlreadyLatest = errors.New("already running the latest version")
	ErrChecksum      = errors.New("checksum verification failed")
)

// UpdateInput picks the release to install. TargetVersion "" means the
// newest release.
type UpdateInput struct {
	CurrentVersion string
	TargetVersion  string
}

// UpdateProgress reports one stage of an update.
type UpdateProgress struct {
	Stage   string
	Message string
}

// platform names an OS and architecture pair as Go spells them.
type platform struct {
	goos, goarch string
}

func currentPlatform() platform { return platform{runtime.GOOS, runtime.GOARCH} }

var (
	releaseOS   = map[string]string{"linux": "Linux", "windows": "Windows"}
	releaseArch = map[string]string{"amd64": "x86_64", "arm64": "arm64", "386": "i386"}
)

// asset is the archive published for p. macOS ships one universal build.
func (p platform) asset() (string, error) {
	if p.goos == "darwin" {
		return binaryName + "_Darwin_all.tar.gz", nil
	}
	osName, ok := releaseOS[p.goos]
	if !ok {
		return "", fmt.Errorf("unsupported operating system: %s", p.goos)
	}
	arch, ok := releaseArch[p.goarch]
	if !ok {
		return "", fmt.Errorf("unsupported architecture: %s", p.goarch)
	}
	ext := ".tar.gz"
	if p.goos == "windows" {
		ext = ".zip"
	}
	return binaryName + "_" + osName + "_" + arch + ext, nil
}

// Update fetches the release archive for this platform, checks it against
// the published checksums and moves the new binary over the running one.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, report func(UpdateProgress)) error {
	if input.CurrentVersion == DevVersion {
		return ErrDevBuild
	}
	if report == nil {
		report = func(UpdateProgress) {}
	}

	tag := input.TargetVersion
	if tag == "" {
		report(UpdateProgress{Stage: "check", Message: "Looking up the newest release"})
		res, err := c.Check(ctx, &CheckInput{Version: input.CurrentVersion})
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !res.UpdateAvailable {
			return ErrAlreadyLatest
		}
		tag = res.LatestVersion
	}

	asset, err := c.platform.asset()
	if err != nil {
		return err
	}

	report(UpdateProgress{Stage: "download", Message: "Fetching " + asset + " from " + tag})
	archive, err := c.fetch(ctx, tag, asset)
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}

	report(UpdateProgress{Stage: "verify", Message: "Checking the archive digest"})
	sums, err := c.fetch(ctx, tag, checksumsAsset)
	if err != nil {
		return fmt.Errorf("download checksums: %w", err)
	}
	want, ok := parseChecksums(sums)[asset]
	if !ok {
		return fmt.Errorf("%s lists no digest for %s", checksumsAsset, asset)
	}
	if err := verifyChecksum(archive, want); err != nil {
		return err
	}

	report(UpdateProgress{Stage: "extract", Message: "Unpacking " + binaryName})
	binary, err := extractBinary(archive, asset)
	if err != nil {
		return fmt.Errorf("extract binary: %w", err)
	}

	report(UpdateProgress{Stage: "apply", Message: "Installing"})
	exe, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	if err := install(binary, exe); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	report(UpdateProgress{Stage: "done", Message: "Now running " + tag})
	return nil
}

// fetch downloads one asset of the release tagged tag.
func (c *Checker) fetch(ctx context.Context, tag, name string) ([]byte, error) {
	url := strings.TrimRight(c.downloadBaseURL, "/") + "/" + path.Join(c.owner, c.repo, "releases", "download", tag, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// parseChecksums reads sha256sum output: "<hex>  <file>" per line.
func parseChecksums(data []byte) map[string]string {
	sums := map[string]string{}
	for line := range strings.Lines(string(data)) {
		if f := strings.Fields(line); len(f) == 2 {
			sums[f[1]] = f[0]
		}
	}
	return sums
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func verifyChecksum(data []byte, want string) error {
	if got := digest(data); !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksum, want, got)
	}
	return nil
}

func extractBinary(archive []byte, asset string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(asset, ".zip") {
		data, err = fromZip(archive, binaryName+".exe")
	} else {
		data, err = fromTarGz(archive, binaryName)
	}
	if err == nil && data == nil {
		return nil, fmt.Errorf("archive %s has no %s binary", asset, binaryName)
	}
	return data, err
}

func fromTarGz(archive []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		switch {
		case errors.Is(err, io.EOF):
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("read tar: %w", err)
		case hdr.Typeflag == tar.TypeReg && filepath.Base(hdr.Name) == name:
			return io.ReadAll(tr)
		}
	}
}

func fromZip(archive []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if filepath.Base(f.Name) == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(rc)
			_ = rc.Close()
			return data, err
		}
	}
	return nil, nil
}

// install stages binary beside target, confirms the staged bytes and
// renames it into place with target's permissions.
func install(binary []byte, target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}

	staged, err := os.CreateTemp(filepath.Dir(target), "."+binaryName+"-update-*")
	if err != nil {
		return fmt.Errorf("stage binary: %w", err)
	}
	tmp := staged.Name()
	defer func() { _ = os.Remove(tmp) }()

	_, err = staged.Write(binary)
	if cerr := staged.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("stage binary: %w", err)
	}

	written, err := os.ReadFile(tmp)
	if err != nil {
		return fmt.Errorf("re-read staged binary: %w", err)
	}
	if digest(written) != digest(binary) {
		return fmt.Errorf("%w: staged binary changed on disk", ErrChecksum)
	}
	if err := os.Chmod(tmp, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
