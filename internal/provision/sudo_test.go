package provision

import (
	"errors"
	"reflect"
	"testing"

	"devbox/internal/config"
)

func TestPrivilegedCommand(t *testing.T) {
	origEuid, origLook := geteuid, lookPath
	t.Cleanup(func() { geteuid, lookPath = origEuid, origLook })

	env := []string{aptEnv}

	cmd := privileged(config.SudoAlways, env, "apt-get", "update")
	if cmd.Name != "sudo" || !reflect.DeepEqual(cmd.Args, []string{aptEnv, "apt-get", "update"}) || len(cmd.Env) != 0 {
		t.Fatalf("unexpected sudo command %#v", cmd)
	}

	cmd = privileged(config.SudoNever, env, "apt-get", "update")
	if cmd.Name != "apt-get" || !reflect.DeepEqual(cmd.Env, env) {
		t.Fatalf("unexpected direct command %#v", cmd)
	}

	geteuid = func() int { return 0 }
	if useSudo(config.SudoAuto) {
		t.Fatal("root should not use sudo in auto mode")
	}

	geteuid = func() int { return 1000 }
	lookPath = func(string) (string, error) { return "/usr/bin/sudo", nil }
	if !useSudo(config.SudoAuto) {
		t.Fatal("non-root with sudo available should use sudo")
	}
	lookPath = func(string) (string, error) { return "", errors.New("missing") }
	if useSudo(config.SudoAuto) {
		t.Fatal("non-root without sudo should run directly")
	}
}
