package language

import "time"

const defaultPhaseTimeout = 20 * time.Second

// Defaults returns the built-in language table. Deployments can override any
// entry from config; the registry keeps the last definition per ID.
func Defaults() []Spec {
	return []Spec{
		{
			ID:              "c",
			Name:            "C",
			SourceExtension: ".c",
			CompileEnabled:  true,
			CompileCmdTpl:   "gcc {src} -O2 -std=c11 -o {bin}",
			RunCmdTpl:       "{bin}",
			BinaryFile:      "program_c",
			DefaultTimeout:  defaultPhaseTimeout,
		},
		{
			ID:              "cpp",
			Name:            "C++",
			SourceExtension: ".cpp",
			CompileEnabled:  true,
			CompileCmdTpl:   "g++ {src} -O2 -std=c++17 -o {bin}",
			RunCmdTpl:       "{bin}",
			BinaryFile:      "program_cpp",
			DefaultTimeout:  defaultPhaseTimeout,
		},
		{
			ID:              "cs",
			Name:            "C#",
			SourceExtension: ".cs",
			CompileEnabled:  true,
			CompileCmdTpl:   "csc -nologo -out:{bin} {src}",
			RunCmdTpl:       "{bin}",
			BinaryFile:      "Program.exe",
			DefaultTimeout:  defaultPhaseTimeout,
		},
		{
			ID:              "shell",
			Name:            "Shell",
			SourceExtension: ".sh",
			CompileEnabled:  false,
			RunCmdTpl:       "bash {src}",
			DefaultTimeout:  defaultPhaseTimeout,
		},
	}
}
