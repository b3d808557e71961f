// Arcellite sync client
//
// Operator CLI for the file sync engine. Talks to the storage API, keeps
// a local mirror, and drives uploads with automatic namespace routing.
//
// Sub-commands:
//
//	arcellite ls [flags]              List a folder
//	arcellite mkdir [flags] <name>    Create a folder
//	arcellite mv [flags] <path>       Rename or move an entry
//	arcellite rm [flags] <path>       Move an entry to the trash
//	arcellite upload [flags] <files>  Upload files with namespace routing
//	arcellite recent [flags]          Show recently accessed entries
//	arcellite url [flags] <path>      Print the direct serve URL
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Arcelliteserver/arcellite-sub000/internal/codec"
	"github.com/Arcelliteserver/arcellite-sub000/internal/config"
	"github.com/Arcelliteserver/arcellite-sub000/internal/engine"
	"github.com/Arcelliteserver/arcellite-sub000/internal/events"
	"github.com/Arcelliteserver/arcellite-sub000/internal/logging"
	"github.com/Arcelliteserver/arcellite-sub000/internal/model"
	"github.com/Arcelliteserver/arcellite-sub000/internal/upload"
	"github.com/Arcelliteserver/arcellite-sub000/internal/view"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "ls":
		cmdLs(os.Args[2:])
	case "mkdir":
		cmdMkdir(os.Args[2:])
	case "mv":
		cmdMv(os.Args[2:])
	case "rm":
		cmdRm(os.Args[2:])
	case "upload":
		cmdUpload(os.Args[2:])
	case "recent":
		cmdRecent(os.Args[2:])
	case "url":
		cmdURL(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: arcellite <ls|mkdir|mv|rm|upload|recent|url> [flags]`)
}

// parseNamespace validates a -ns flag value against the known storage
// namespaces.
func parseNamespace(s string) model.Namespace {
	ns := model.Namespace(s)
	if !ns.Valid() {
		fmt.Fprintf(os.Stderr, "unknown namespace %q (valid: %v)\n", s, model.Namespaces())
		os.Exit(2)
	}
	return ns
}

// newEngine builds an engine from the environment. The upload decision
// prompt asks y/n on stdin.
func newEngine() *engine.Engine {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	return engine.New(cfg, func(d *upload.Decision) {
		fmt.Print("Upload into the current folder instead of the namespace root? [y/N] ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.EqualFold(strings.TrimSpace(line), "y") {
			d.UseCurrentFolder()
		} else {
			d.UseRoot()
		}
	})
}

func cmdLs(args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	ns := fs.String("ns", "general", "Namespace (general, media, video, audio)")
	path := fs.String("path", "", "Folder path, empty for root")
	search := fs.String("search", "", "Case-insensitive file name filter")
	sortKey := fs.String("sort", "name", "Sort key: name, date, size")
	fs.Parse(args)

	namespace := parseNamespace(*ns)
	eng := newEngine()
	defer logging.Sync()
	ctx := context.Background()

	if *path == "" {
		eng.SwitchTab(ctx, view.Tab(namespace))
	} else {
		eng.EnterFolder(ctx, codec.Encode(string(namespace), *path))
	}

	folders, files := eng.View(*search, view.SortKey(*sortKey))
	for _, f := range folders {
		fmt.Printf("%-40s  <dir>  %d items\n", f.Name, f.ItemCount)
	}
	for _, f := range files {
		fmt.Printf("%-40s  %8d  %s\n", f.Name, f.SizeBytes, f.ModifiedAt.Format("2006-01-02 15:04"))
	}
}

func cmdMkdir(args []string) {
	fs := flag.NewFlagSet("mkdir", flag.ExitOnError)
	ns := fs.String("ns", "general", "Namespace")
	path := fs.String("path", "", "Parent folder path")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: arcellite mkdir [-ns ns] [-path parent] <name>")
		os.Exit(2)
	}

	namespace := parseNamespace(*ns)
	eng := newEngine()
	defer logging.Sync()

	err := eng.Mutations.CreateFolder(context.Background(), namespace, *path, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
}

func cmdMv(args []string) {
	fs := flag.NewFlagSet("mv", flag.ExitOnError)
	ns := fs.String("ns", "general", "Namespace")
	rename := fs.String("rename", "", "New name, keeping the parent folder")
	to := fs.String("to", "", "Target folder path; empty with -root moves to the namespace root")
	root := fs.Bool("root", false, "Move to the namespace root")
	fs.Parse(args)
	if fs.NArg() != 1 || (*rename == "" && *to == "" && !*root) {
		fmt.Fprintln(os.Stderr, "usage: arcellite mv [-ns ns] (-rename name | -to folder | -root) <path>")
		os.Exit(2)
	}

	namespace := parseNamespace(*ns)
	eng := newEngine()
	defer logging.Sync()
	ctx := context.Background()

	src := fs.Arg(0)
	item := model.Item{
		ID:        codec.Encode(string(namespace), src),
		Name:      filepath.Base(src),
		Namespace: namespace,
	}

	var err error
	if *rename != "" {
		err = eng.Mutations.Rename(ctx, item, *rename)
	} else {
		err = eng.Mutations.Move(ctx, item, *to)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mv: %v\n", err)
		os.Exit(1)
	}
}

func cmdRm(args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	ns := fs.String("ns", "general", "Namespace")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: arcellite rm [-ns ns] <path>")
		os.Exit(2)
	}

	namespace := parseNamespace(*ns)
	eng := newEngine()
	defer logging.Sync()

	src := fs.Arg(0)
	item := model.Item{
		ID:        codec.Encode(string(namespace), src),
		Name:      filepath.Base(src),
		Namespace: namespace,
	}
	err := eng.Mutations.Delete(context.Background(), item, namespace, codec.Dir(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "rm: %v\n", err)
		os.Exit(1)
	}
}

func cmdUpload(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	ns := fs.String("ns", "general", "Namespace being browsed")
	path := fs.String("path", "", "Folder being browsed, empty for root")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: arcellite upload [-ns ns] [-path folder] <files...>")
		os.Exit(2)
	}

	namespace := parseNamespace(*ns)
	eng := newEngine()
	defer logging.Sync()
	ctx := context.Background()

	var files []upload.File
	var open []*os.File
	for _, name := range fs.Args() {
		f, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upload: %v\n", err)
			os.Exit(1)
		}
		info, err := f.Stat()
		if err != nil {
			fmt.Fprintf(os.Stderr, "upload: %v\n", err)
			os.Exit(1)
		}
		open = append(open, f)
		files = append(files, upload.File{
			Name:    filepath.Base(name),
			Size:    info.Size(),
			Content: f,
		})
	}
	defer func() {
		for _, f := range open {
			f.Close()
		}
	}()

	sub := eng.Bus.Subscribe()
	defer eng.Bus.Unsubscribe(sub)
	go func() {
		for ev := range sub {
			if ev.Type == events.EventProgress {
				fmt.Printf("\r%s %3d%% (%s)", ev.TaskID[:8], ev.Progress, ev.Message)
			}
		}
	}()

	result := eng.Uploads.Run(ctx, files, namespace, *path)
	if result.AutoDismiss {
		// Keep the final progress line visible briefly, the way the
		// dashboard panel does, then clear it.
		time.Sleep(eng.Uploads.DismissDelay())
		fmt.Print("\r\033[K")
	} else {
		fmt.Println()
	}
	fmt.Printf("%d uploaded, %d failed\n", result.Succeeded, result.Failed)
	for _, task := range result.Batch.Tasks() {
		if task.Status == model.UploadError {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", task.FileName, task.Error)
		}
	}
	if result.SwitchTo != "" {
		fmt.Printf("switched to %s\n", result.SwitchTo)
	}
	if result.Failed > 0 {
		os.Exit(1)
	}
}

func cmdRecent(args []string) {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	n := fs.Int("n", 10, "Number of entries to show")
	fs.Parse(args)

	eng := newEngine()
	defer logging.Sync()

	if err := eng.Recent.Reload(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "recent: %v\n", err)
		os.Exit(1)
	}
	for i, e := range eng.Recent.Entries() {
		if i >= *n {
			break
		}
		fmt.Printf("%-10s %-40s %s\n", e.Namespace, e.Path, e.AccessedAt.Format("2006-01-02 15:04"))
	}
}

func cmdURL(args []string) {
	fs := flag.NewFlagSet("url", flag.ExitOnError)
	ns := fs.String("ns", "general", "Namespace")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: arcellite url [-ns ns] <path>")
		os.Exit(2)
	}

	namespace := parseNamespace(*ns)
	eng := newEngine()
	defer logging.Sync()
	fmt.Println(eng.Client.FileURL(string(namespace), fs.Arg(0)))
}
