// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command miragepack builds and inspects asset packs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/mirage/asset"
)

var (
	compress = flag.String("c", "", "Pack the given file or directory")
	extract  = flag.String("e", "", "Extract the named entry to stdout")
	list     = flag.Bool("l", false, "List pack entries")
	dstFile  = flag.String("f", "out.pack", "Pack file to create or read")
)

func main() {
	flag.Parse()

	var err error
	switch {
	case *compress != "" && *extract != "":
		err = errors.New("only one operation at a time")
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		err = extractEntry(*dstFile, *extract)
	case *list:
		err = listEntries(*dstFile)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.WithError(err).Fatal("operation failed")
	}
}

func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	builder := asset.NewBuilder()
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name, err := filepath.Rel(src, path)
		if err != nil || name == "." {
			name = filepath.Base(path)
		}
		return builder.Add(filepath.ToSlash(name), data)
	})
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	written, err := builder.WriteTo(out)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": dst, "bytes": written}).Info("pack written")
	return nil
}

func extractEntry(packFile, name string) error {
	archive, err := asset.OpenFile(packFile)
	if err != nil {
		return err
	}
	defer archive.Close()

	data, err := archive.ReadAll(name)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func listEntries(packFile string) error {
	archive, err := asset.OpenFile(packFile)
	if err != nil {
		return err
	}
	defer archive.Close()

	for _, name := range archive.Names() {
		fmt.Println(name)
	}
	return nil
}
