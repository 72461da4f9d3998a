package commands

import (
	"confclient/internal/config"
	"confclient/internal/confluence"
	"confclient/pkg/logger"
)

// newConfluenceClient is a package-level variable to allow test injection of a mock.
// Production code uses the real client constructor; tests can override this.
var newConfluenceClient = func(cfg *config.Config, log *logger.Logger) (confluence.ContentClient, error) {
	return confluence.New(
		cfg.Confluence.BaseURL,
		cfg.Confluence.Username,
		cfg.Confluence.APIToken,
		confluence.WithTimeout(cfg.Confluence.Timeout),
		confluence.WithPageSize(cfg.Confluence.PageSize),
		confluence.WithInsecureSkipVerify(cfg.Confluence.InsecureSkipVerify),
		confluence.WithLogger(log),
	)
}
