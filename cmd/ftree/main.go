package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/brettbedarf/filetree/config"
	"github.com/brettbedarf/filetree/filesystem"
	"github.com/brettbedarf/filetree/internal/util"
	"github.com/brettbedarf/filetree/requests"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		verbose    int
		nodesDef   string
		statPath   string
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (.yaml, .yml or .json)")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&nodesDef, "nodes", "", "Path to nodes def file (.yaml, .yml or .json)")
	flag.StringVar(&nodesDef, "n", "", "--nodes (shorthand)")
	flag.StringVar(&statPath, "stat", "", "Print node info for this path after loading")
	flag.StringVar(&statPath, "s", "", "--stat (shorthand)")
	flag.IntVar(&verbose, "verbose", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", config.InfoVerbose, "--verbose (shorthand)")
	flag.Parse()

	osFs := afero.NewOsFs()

	// Init config; the verbose flag wins over the file
	cfg := config.NewDefaultConfig()
	if configPath != "" {
		override, err := config.LoadConfigOverrideFile(osFs, configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg.Merge(override)
	}
	cfg.Merge(&config.ConfigOverride{LogLvl: &verbose})

	util.InitializeLogger(cfg.LogLvl, os.Stderr)
	logger := util.GetLogger("main")
	logger.Info().Int("verbose", verbose).Str("config", configPath).Str("nodes", nodesDef).Msg("ftree initializing")

	fs := filesystem.NewFS(cfg)

	// Load nodes
	if nodesDef != "" {
		reqs, err := requests.Load(osFs, nodesDef)
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				logger.Warn().Err(e).Msg("Skipped node definition")
			}
		} else if err != nil {
			logger.Fatal().Err(err).Str("nodes", nodesDef).Msg("Failed to read nodes file")
		}
		logger.Debug().Int("requests", len(reqs)).Msg("Nodes file loaded")

		added, err := fs.Apply(reqs)
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				logger.Warn().Err(e).Msg("Failed to add node")
			}
		}
		logger.Info().Int("added", added).Int("nodes", fs.Count()).Msg("Added new nodes to tree")
	} else {
		logger.Warn().Msg("No nodes file provided")
	}

	fmt.Print(fs.String())

	if statPath != "" {
		ctx, err := fs.GetNodeCtx(statPath)
		if err != nil {
			logger.Error().Err(err).Str("path", statPath).Msg("Failed to stat")
		} else {
			info := ctx.Info()
			kind := "file"
			if info.IsDir {
				kind = "dir"
			}
			fmt.Printf("\n%s\tid=%d\ttype=%s\tsize=%d\tchildren=%v\n",
				info.Path, info.NodeID, kind, info.Size, ctx.Children())
			attr := ctx.Attr()
			fmt.Printf("attr\tino=%d\tmode=%#o\tnlink=%d\tsize=%d\tblocks=%d\tuid=%d\tgid=%d\n",
				attr.Ino, attr.Mode, attr.Nlink, attr.Size, attr.Blocks, attr.Uid, attr.Gid)
			ctx.Close()
		}
	}

	freed := fs.Destroy()
	logger.Debug().Int("freed", freed).Msg("Tree destroyed")
}
