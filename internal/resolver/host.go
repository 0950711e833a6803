package resolver

import (
	"fmt"
	"math"
	"math/rand"
	"net"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Host returns the production provider: a function table over the process's
// own runtime. This is the gate's rendition of "the next definition after the
// interposition layer" — the implementation that exists in the current
// process image, not in a hard-coded library path. Symbols the runtime has
// no faithful equivalent for are absent; invoking one surfaces as a
// configuration fault, the same way an unresolvable dlsym would.
func Host() Provider {
	tok := &tokenizer{}

	return TableProvider{
		"getenv": func(args ...any) (any, error) {
			name, err := argString("getenv", args, 0)
			if err != nil {
				return nil, err
			}
			v, ok := os.LookupEnv(name)
			if !ok {
				return nil, nil
			}
			return v, nil
		},
		"setenv": func(args ...any) (any, error) {
			name, err := argString("setenv", args, 0)
			if err != nil {
				return nil, err
			}
			value, err := argString("setenv", args, 1)
			if err != nil {
				return nil, err
			}
			return nil, os.Setenv(name, value)
		},
		"unsetenv": func(args ...any) (any, error) {
			name, err := argString("unsetenv", args, 0)
			if err != nil {
				return nil, err
			}
			return nil, os.Unsetenv(name)
		},
		"putenv": func(args ...any) (any, error) {
			pair, err := argString("putenv", args, 0)
			if err != nil {
				return nil, err
			}
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("putenv %q: missing separator", pair)
			}
			return nil, os.Setenv(name, value)
		},

		"asctime":   timeFormat("asctime", func(t time.Time) time.Time { return t }),
		"ctime":     timeFormat("ctime", func(t time.Time) time.Time { return t.Local() }),
		"gmtime":    timeFormat("gmtime", func(t time.Time) time.Time { return t.UTC() }),
		"localtime": timeFormat("localtime", func(t time.Time) time.Time { return t.Local() }),

		"basename": pathSplit("basename", filepath.Base),
		"dirname":  pathSplit("dirname", filepath.Dir),

		// The shared default source is exactly the hidden state that makes
		// the rand family a hazard; forwarding to it is the point.
		"rand":    func(args ...any) (any, error) { return rand.Int(), nil },
		"drand48": func(args ...any) (any, error) { return rand.Float64(), nil },
		"lrand48": func(args ...any) (any, error) { return rand.Int63(), nil },
		"mrand48": func(args ...any) (any, error) { return int64(int32(rand.Uint32())), nil },

		"getpwnam": func(args ...any) (any, error) {
			name, err := argString("getpwnam", args, 0)
			if err != nil {
				return nil, err
			}
			return user.Lookup(name)
		},
		"getpwuid": func(args ...any) (any, error) {
			uid, err := argString("getpwuid", args, 0)
			if err != nil {
				return nil, err
			}
			return user.LookupId(uid)
		},
		"getgrnam": func(args ...any) (any, error) {
			name, err := argString("getgrnam", args, 0)
			if err != nil {
				return nil, err
			}
			return user.LookupGroup(name)
		},
		"getgrgid": func(args ...any) (any, error) {
			gid, err := argString("getgrgid", args, 0)
			if err != nil {
				return nil, err
			}
			return user.LookupGroupId(gid)
		},
		"getlogin": func(args ...any) (any, error) {
			u, err := user.Current()
			if err != nil {
				return nil, err
			}
			return u.Username, nil
		},

		"getservbyname": func(args ...any) (any, error) {
			name, err := argString("getservbyname", args, 0)
			if err != nil {
				return nil, err
			}
			proto, err := argString("getservbyname", args, 1)
			if err != nil {
				return nil, err
			}
			return net.LookupPort(proto, name)
		},
		"inet_ntoa": func(args ...any) (any, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("inet_ntoa: missing address argument")
			}
			ip, ok := args[0].(net.IP)
			if !ok {
				return nil, fmt.Errorf("inet_ntoa: argument 0: want net.IP, got %T", args[0])
			}
			return ip.String(), nil
		},

		"strerror": func(args ...any) (any, error) {
			n, err := argInt("strerror", args, 0)
			if err != nil {
				return nil, err
			}
			return syscall.Errno(n).Error(), nil
		},
		"strsignal": func(args ...any) (any, error) {
			n, err := argInt("strsignal", args, 0)
			if err != nil {
				return nil, err
			}
			return syscall.Signal(n).String(), nil
		},
		"strtok": tok.next,

		"ctermid": func(args ...any) (any, error) {
			return "/dev/tty", nil
		},
		"readdir": func(args ...any) (any, error) {
			dir, err := argString("readdir", args, 0)
			if err != nil {
				return nil, err
			}
			ents, err := os.ReadDir(dir)
			if err != nil {
				return nil, err
			}
			names := make([]string, len(ents))
			for i, e := range ents {
				names[i] = e.Name()
			}
			return names, nil
		},
		"system": func(args ...any) (any, error) {
			command, err := argString("system", args, 0)
			if err != nil {
				return nil, err
			}
			cmd := exec.Command("/bin/sh", "-c", command)
			runErr := cmd.Run()
			if cmd.ProcessState != nil {
				return cmd.ProcessState.ExitCode(), nil
			}
			return -1, runErr
		},

		"lgamma":  lgamma("lgamma"),
		"lgammaf": lgamma("lgammaf"),
		"lgammal": lgamma("lgammal"),

		"thread_create": func(args ...any) (any, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("thread_create: missing start routine")
			}
			fn, ok := args[0].(func())
			if !ok {
				return nil, fmt.Errorf("thread_create: argument 0: want func(), got %T", args[0])
			}
			go fn()
			return nil, nil
		},
	}
}

// tokenizer carries strtok's hidden parse position. The state is shared by
// construction; that is the behavior being forwarded, not an oversight.
type tokenizer struct {
	mu   sync.Mutex
	rest string
}

func (t *tokenizer) next(args ...any) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(args) < 2 {
		return nil, fmt.Errorf("strtok: want (str, delim) arguments")
	}
	delim, err := argString("strtok", args, 1)
	if err != nil {
		return nil, err
	}
	if args[0] != nil {
		s, err := argString("strtok", args, 0)
		if err != nil {
			return nil, err
		}
		t.rest = s
	}

	t.rest = strings.TrimLeft(t.rest, delim)
	if t.rest == "" {
		return nil, nil
	}
	if i := strings.IndexAny(t.rest, delim); i >= 0 {
		token := t.rest[:i]
		t.rest = t.rest[i:]
		return token, nil
	}
	token := t.rest
	t.rest = ""
	return token, nil
}

func timeFormat(symbol string, adjust func(time.Time) time.Time) Func {
	return func(args ...any) (any, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%s: missing time argument", symbol)
		}
		t, ok := args[0].(time.Time)
		if !ok {
			return nil, fmt.Errorf("%s: argument 0: want time.Time, got %T", symbol, args[0])
		}
		return adjust(t).Format(time.ANSIC), nil
	}
}

func pathSplit(symbol string, split func(string) string) Func {
	return func(args ...any) (any, error) {
		path, err := argString(symbol, args, 0)
		if err != nil {
			return nil, err
		}
		return split(path), nil
	}
}

func lgamma(symbol string) Func {
	return func(args ...any) (any, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%s: missing argument", symbol)
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("%s: argument 0: want float64, got %T", symbol, args[0])
		}
		v, _ := math.Lgamma(x)
		return v, nil
	}
}

func argString(symbol string, args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s: missing argument %d", symbol, i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %d: want string, got %T", symbol, i, args[i])
	}
	return s, nil
}

func argInt(symbol string, args []any, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%s: missing argument %d", symbol, i)
	}
	n, ok := args[i].(int)
	if !ok {
		return 0, fmt.Errorf("%s: argument %d: want int, got %T", symbol, i, args[i])
	}
	return n, nil
}
