package doctor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shipenv/shipenv/pkg/credentials"
	"github.com/shipenv/shipenv/pkg/envfile"
	"github.com/shipenv/shipenv/pkg/platform"
)

// credentialsEnvVar mirrors shipenv.CredentialsEnvVar; the checks only need
// the name.
const credentialsEnvVar = "GCP_CREDENTIALS_JSON"

func checkCredentials(cfg Config) Result {
	path := cfg.CredentialsFile
	if path == "" {
		found, err := discoverCredentials(cfg.Dir)
		if err != nil {
			return Result{Status: StatusFail, Detail: err.Error()}
		}
		if found == "" {
			return Result{
				Status: StatusWarn,
				Detail: "no service account key file found",
				Remedy: "download the key from your cloud console, or pass --credentials",
			}
		}
		path = found
	}

	key, err := credentials.Load(path)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return Result{
				Status: StatusFail,
				Detail: fmt.Sprintf("credentials file not found: %s", path),
				Remedy: "check the path, or run from the directory that holds the key file",
			}
		}
		return Result{Status: StatusFail, Detail: err.Error(), Remedy: "re-download the key file; it must be valid JSON"}
	}
	if err := key.Validate(); err != nil {
		return Result{Status: StatusFail, Detail: err.Error(), Remedy: "use a service account key, not another credential type"}
	}
	return Result{Status: StatusOK, Detail: key.Fingerprint()}
}

// discoverCredentials finds a *.json file in dir whose content looks like a
// service account key.
func discoverCredentials(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		key, err := credentials.Load(m)
		if err != nil {
			continue
		}
		if key.Type == credentials.TypeServiceAccount {
			return m, nil
		}
	}
	return "", nil
}

func checkGitignore(cfg Config) Result {
	data, err := os.ReadFile(filepath.Join(cfg.Dir, ".gitignore"))
	if err != nil {
		return Result{
			Status: StatusFail,
			Detail: ".gitignore not found",
			Remedy: "add a .gitignore with a *.json rule so the key file is never committed",
		}
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "*.json" || line == "**/*.json" {
			return Result{Status: StatusOK, Detail: "*.json is ignored"}
		}
	}
	return Result{
		Status: StatusFail,
		Detail: ".gitignore does not cover *.json",
		Remedy: "add a '*.json' line to .gitignore",
	}
}

// checkTracked verifies the key file sitting in a git repository actually
// falls under the ignore rules, so it cannot end up committed.
func checkTracked(cfg Config) Result {
	if _, err := os.Stat(filepath.Join(cfg.Dir, ".git")); err != nil {
		return Result{Status: StatusSkip, Detail: "not a git repository"}
	}

	path := cfg.CredentialsFile
	if path == "" {
		found, err := discoverCredentials(cfg.Dir)
		if err != nil {
			return Result{Status: StatusFail, Detail: err.Error()}
		}
		path = found
	}
	if path == "" {
		return Result{Status: StatusSkip, Detail: "no key file to check"}
	}

	data, err := os.ReadFile(filepath.Join(cfg.Dir, ".gitignore"))
	if err != nil {
		return Result{
			Status: StatusFail,
			Detail: fmt.Sprintf("%s sits in a git repository with no .gitignore", filepath.Base(path)),
			Remedy: "add a .gitignore with a '*.json' rule before committing",
		}
	}
	name := filepath.Base(path)
	for _, pattern := range strings.Split(string(data), "\n") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		pattern = strings.TrimPrefix(pattern, "/")
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return Result{Status: StatusOK, Detail: fmt.Sprintf("%s is covered by %q", name, pattern)}
		}
	}
	return Result{
		Status: StatusFail,
		Detail: fmt.Sprintf("%s is not covered by any .gitignore rule", name),
		Remedy: "add a '*.json' line to .gitignore so the key file is never committed",
	}
}

func checkProcfile(cfg Config) Result {
	data, err := os.ReadFile(filepath.Join(cfg.Dir, "Procfile"))
	if err != nil {
		return Result{
			Status: StatusFail,
			Detail: "Procfile not found",
			Remedy: fmt.Sprintf("create a Procfile with 'web: %s'", cfg.Platform.StartCommand),
		}
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "web:") {
			continue
		}
		command := strings.TrimSpace(strings.TrimPrefix(line, "web:"))
		if command == cfg.Platform.StartCommand {
			return Result{Status: StatusOK, Detail: "web: " + command}
		}
		return Result{
			Status: StatusWarn,
			Detail: fmt.Sprintf("web process is %q, convention is %q", command, cfg.Platform.StartCommand),
		}
	}
	return Result{
		Status: StatusFail,
		Detail: "Procfile has no web process",
		Remedy: fmt.Sprintf("add 'web: %s'", cfg.Platform.StartCommand),
	}
}

func checkRuntime(cfg Config) Result {
	data, err := os.ReadFile(filepath.Join(cfg.Dir, "runtime.txt"))
	if err != nil {
		return Result{
			Status: StatusWarn,
			Detail: "runtime.txt not found; platform will pick a default runtime",
			Remedy: fmt.Sprintf("pin the runtime, e.g. '%s'", platform.DefaultRuntime),
		}
	}
	pin := strings.TrimSpace(string(data))
	if !platform.ValidRuntime(pin) {
		return Result{
			Status: StatusFail,
			Detail: fmt.Sprintf("runtime.txt content %q is not a valid pin", pin),
			Remedy: fmt.Sprintf("use the 'python-X.Y.Z' form, e.g. '%s'", platform.DefaultRuntime),
		}
	}
	return Result{Status: StatusOK, Detail: pin}
}

func checkRequirements(cfg Config) Result {
	data, err := os.ReadFile(filepath.Join(cfg.Dir, "requirements.txt"))
	if err != nil {
		return Result{
			Status: StatusFail,
			Detail: "requirements.txt not found",
			Remedy: "freeze dependencies: pip freeze > requirements.txt (fixes ModuleNotFoundError on deploy)",
		}
	}
	content := strings.ToLower(string(data))
	if !strings.Contains(content, "gunicorn") {
		return Result{
			Status: StatusWarn,
			Detail: "requirements.txt does not list gunicorn",
			Remedy: "the start command runs gunicorn; add it to requirements.txt",
		}
	}
	return Result{Status: StatusOK, Detail: "requirements.txt present"}
}

func checkPortBinding(cfg Config) Result {
	data, err := os.ReadFile(filepath.Join(cfg.Dir, cfg.Entrypoint))
	if err != nil {
		return Result{Status: StatusSkip, Detail: fmt.Sprintf("entrypoint %s not found", cfg.Entrypoint)}
	}
	if !cfg.Platform.InjectsPort {
		return Result{Status: StatusSkip, Detail: cfg.Platform.Name + " does not inject PORT"}
	}
	// Heuristic: the app should read PORT somewhere in its entry file.
	if strings.Contains(string(data), `"PORT"`) || strings.Contains(string(data), "'PORT'") {
		return Result{Status: StatusOK, Detail: "entrypoint reads PORT"}
	}
	return Result{
		Status: StatusWarn,
		Detail: fmt.Sprintf("%s does not appear to read PORT", cfg.Entrypoint),
		Remedy: "bind to the PORT env var or the platform will report a port binding error",
	}
}

func checkProfile(cfg Config) Result {
	path := cfg.Profile
	if path == "" {
		path = filepath.Join(cfg.Dir, envfile.DefaultName)
	}
	if _, err := os.Stat(path); err != nil {
		return Result{
			Status: StatusSkip,
			Detail: fmt.Sprintf("no profile at %s", path),
		}
	}
	vars, err := envfile.Read(path)
	if err != nil {
		return Result{Status: StatusFail, Detail: err.Error()}
	}
	raw, ok := vars[credentialsEnvVar]
	if !ok {
		return Result{
			Status: StatusWarn,
			Detail: fmt.Sprintf("profile does not set %s", credentialsEnvVar),
			Remedy: "run 'shipenv convert <keyfile> --write' to add it",
		}
	}
	key, err := credentials.Parse([]byte(raw))
	if err != nil {
		return Result{
			Status: StatusFail,
			Detail: fmt.Sprintf("%s value is not valid JSON", credentialsEnvVar),
			Remedy: "regenerate the value with 'shipenv convert'; it must be the full key on one line",
		}
	}
	if err := key.Validate(); err != nil {
		return Result{Status: StatusFail, Detail: err.Error()}
	}
	return Result{Status: StatusOK, Detail: fmt.Sprintf("%s set (%s)", credentialsEnvVar, key.Fingerprint())}
}

func checkEnvSize(cfg Config) Result {
	if cfg.Platform.EnvValueLimit == 0 {
		return Result{Status: StatusSkip, Detail: cfg.Platform.Name + " has no documented env size limit"}
	}
	path := cfg.Profile
	if path == "" {
		path = filepath.Join(cfg.Dir, envfile.DefaultName)
	}
	vars, err := envfile.Read(path)
	if err != nil {
		return Result{Status: StatusFail, Detail: err.Error()}
	}
	for name, value := range vars {
		if len(value) > cfg.Platform.EnvValueLimit {
			return Result{
				Status: StatusFail,
				Detail: fmt.Sprintf("%s is %d bytes, over the %d byte limit", name, len(value), cfg.Platform.EnvValueLimit),
				Remedy: "store the blob elsewhere (e.g. a secret file mount) for this platform",
			}
		}
	}
	return Result{Status: StatusOK, Detail: "env values within platform limits"}
}
