package androidbuilder

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

func getName(tool string) string {
	if runtime.GOOS != "windows" {
		return tool
	}

	switch tool {
	case "java":
		return "java.exe"
	case "javac":
		return "javac.exe"
	case "jar":
		return "jar.exe"
	case "sdkmanager":
		return "sdkmanager.bat"
	case "gradle":
		return "gradle.bat"
	case "gradlew":
		return "gradlew.bat"
	case "llvm-strip":
		return "llvm-strip.exe"
	case "adb":
		return "adb.exe"

	default:
		panic("unreachable")
	}
}

// Runner executes external tools. Implementations decide where output goes
// and how commands are reported.
type Runner interface {
	Run(cmd *exec.Cmd) error
}

type printRunner struct{}

func (printRunner) Run(cmd *exec.Cmd) error {
	fmt.Println(cmd.String())
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// DefaultRunner prints every command before running it with output attached
// to the process stdout and stderr.
var DefaultRunner Runner = printRunner{}
