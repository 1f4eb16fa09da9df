package fetcher

import "github.com/gosimple/slug"

// Filename builds the deterministic destination filename for a job's trace:
// {project-slug}{delim}{stage-slug}{delim}{job-slug}.log. Slugs are lowercase
// ASCII with non-alphanumeric runs collapsed to single dashes, so they can
// never contain the delimiter.
func Filename(project, stage, job, delim string) string {
	return slug.Make(project) + delim + slug.Make(stage) + delim + slug.Make(job) + ".log"
}
