package main

import (
	"flag"
	"log"
	"os"

	"github.com/danmuck/slipmux/internal/config"
)

func main() {
	format := flag.String("format", "toml", "config format: toml|yaml")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	render := flag.Bool("render", false, "with -validate, print the effective config in -format")
	input := flag.String("input", "slipmux.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal(err)
		}
		if *render {
			out, err := config.Render(cfg, *format)
			if err != nil {
				log.Fatal(err)
			}
			os.Stdout.Write(out)
			return
		}
		log.Printf("Validated config at %s (%d links)", *input, len(cfg.Links))
		return
	}

	target := *output
	if target == "" {
		switch *format {
		case "yaml", "yml":
			target = "slipmux.yaml"
		default:
			target = "slipmux.toml"
		}
	}

	if err := config.WriteTemplate(target, *format, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *format, target)
}
