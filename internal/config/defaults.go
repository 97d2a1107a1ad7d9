package config

import "time"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Keywords: []string{
			"python",
			"javascript",
			"react",
			"software-engineer",
			"full-stack",
			"backend",
			"frontend",
			"facebook-ads",
			"meta-ads",
			"social-media-marketing",
			"digital-marketing",
			"paid-social",
			"ppc-specialist",
		},
		OutputDir:            "output",
		LogDir:               "logs",
		DelayBetweenSources:  0,
		DelayBetweenKeywords: 2 * time.Second,
		RequestTimeout:       30 * time.Second,
		UserAgent:            defaultUserAgent,
		Browser: BrowserConfig{
			Enabled:     true,
			Headless:    true,
			WaitTimeout: 10 * time.Second,
		},
		Sources: DefaultSources(),
	}
}

// DefaultSources are the boards scraped out of the box, in scrape order.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:       "WeWorkRemotely",
			Enabled:    true,
			BaseURL:    "https://weworkremotely.com",
			SearchPath: "/remote-jobs/search?term={keyword}",
			Selectors: Selectors{
				Listing:  "li.feature",
				Title:    "span.title",
				Company:  "span.company",
				Link:     "a",
				Location: "span.region",
			},
		},
		{
			Name:       "RemoteOK",
			Enabled:    true,
			BaseURL:    "https://remoteok.com",
			SearchPath: "/remote-{keyword}-jobs",
			Headers: map[string]string{
				"User-Agent": defaultUserAgent,
			},
			Selectors: Selectors{
				Listing:  "tr.job",
				Title:    `h2[itemprop="title"]`,
				Company:  `h3[itemprop="name"]`,
				Link:     "a.preventLink",
				Location: "div.location",
				Date:     "time",
			},
		},
		{
			Name:            "Remote.co",
			Enabled:         true,
			BaseURL:         "https://remote.co",
			SearchPath:      "/remote-jobs/search/?search_keywords={keyword}",
			RequiresBrowser: true,
			Selectors: Selectors{
				Listing: ".job_listing",
				Title:   ".position",
				Company: ".company",
				Link:    "a",
			},
		},
	}
}
