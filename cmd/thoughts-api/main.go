package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/sampleapi"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/version"
)

func main() {
	var listen string
	var showVersion bool
	flag.StringVar(&listen, "listen", ":5000", "listen address")
	flag.BoolVar(&showVersion, "V", false, "show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Get().Banner("thoughts-api"))
		return
	}

	gin.SetMode(gin.ReleaseMode)
	r := sampleapi.NewRouter(sampleapi.NewSeededStore())
	log.Printf("thoughts-api listening on %s (openapi at %s)", listen, sampleapi.DocumentPath)
	if err := r.Run(listen); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
