package androidbuilder

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type JavaTools struct {
	Javac string
	Jar   string
}

func getJavaHome() (string, error) {
	// first try JAVA_HOME env var
	env := os.Getenv("JAVA_HOME")
	if env != "" {
		err := checkJavaHome(env)
		if err != nil {
			// fail fast if JAVA_HOME doesn't have required binaries
			return "", fmt.Errorf("getJavaHome: invalid JAVA_HOME: %w", err)
		}
		return env, nil
	}

	// fallback
	javaHome := tryFindJavaHome()
	if javaHome == "" {
		return "", errors.New("getJavaHome: unable to find JAVA_HOME")
	}

	return javaHome, nil
}

func tryFindJavaHome() string {
	// check if java binary is in PATH
	javaBin, err := exec.LookPath(getName("java"))
	if err != nil {
		return ""
	}

	// print jvm properties
	cmd := exec.Command(javaBin, "-XshowSettings:properties", "--version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}

	javaHome := parseJavaHome(out)
	if javaHome == "" {
		return ""
	}

	err = checkJavaHome(javaHome)
	if err != nil {
		return ""
	}

	return javaHome
}

// parseJavaHome extracts java.home from the output of
// `java -XshowSettings:properties`.
func parseJavaHome(out []byte) string {
	s := bufio.NewScanner(bytes.NewReader(out))
	for s.Scan() {
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(text, "java.home = ") {
			return strings.TrimPrefix(text, "java.home = ")
		}
	}

	return ""
}

func checkJavaHome(javaHome string) error {
	bin := filepath.Join(javaHome, "bin")
	entries, err := os.ReadDir(bin)
	if err != nil {
		return fmt.Errorf("checkJavaHome: %w", err)
	}

	var hasJavac, hasJar bool

	for _, entry := range entries {
		if entry.Type().IsRegular() {
			switch entry.Name() {
			case getName("javac"):
				hasJavac = true
			case getName("jar"):
				hasJar = true
			}
		}
	}

	toolsNotFound := make([]string, 0, 2)
	if !hasJavac {
		toolsNotFound = append(toolsNotFound, "javac")
	}
	if !hasJar {
		toolsNotFound = append(toolsNotFound, "jar")
	}

	if len(toolsNotFound) > 0 {
		return errors.New("checkJavaHome: unable to find " + strings.Join(toolsNotFound, ", ") + " in " + bin)
	}

	return nil
}
