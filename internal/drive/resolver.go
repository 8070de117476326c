package drive

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"driveway/internal/model"
)

// ambiguousCandidateCap limits how many candidates an AmbiguousSpecError
// carries; showing hundreds of matches helps nobody.
const ambiguousCandidateCap = 20

// ErrCWDUndefined is returned when a specifier needs the virtual CWD but no
// ls command has established one yet.
var ErrCWDUndefined = errors.New(`the virtual CWD (".") is not currently defined`)

// AmbiguousSpecError reports that a specifier expected to name a single
// document matched several. Candidates holds at most ambiguousCandidateCap
// of the matches, most recently modified first; Total is the full count.
type AmbiguousSpecError struct {
	Spec       string
	Total      int
	Candidates []model.Doc
}

func (e *AmbiguousSpecError) Error() string {
	return fmt.Sprintf("%d documents matched the specification %q, please be more specific", e.Total, e.Spec)
}

// Resolve turns a document specifier into the documents it names, most
// recently modified first. Specifier forms are tried in a fixed order:
// an exact document id, the virtual CWD ".", the parents ".." of the CWD,
// a positional reference "%N" into the last printed listing, and finally a
// substring match against document names. When zeroOK is false, matching
// nothing is an error.
func (s *Service) Resolve(spec string, zeroOK bool) ([]model.Doc, error) {
	docs, err := s.resolveSpec(spec)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 && !zeroOK {
		return nil, fmt.Errorf("no documents matched the specification %q", spec)
	}

	sortDocsByModTime(docs)
	return docs, nil
}

// ResolveOne resolves a specifier that must name exactly one document.
func (s *Service) ResolveOne(spec string) (model.Doc, error) {
	docs, err := s.Resolve(spec, false)
	if err != nil {
		return model.Doc{}, err
	}
	if len(docs) > 1 {
		capped := docs
		if len(capped) > ambiguousCandidateCap {
			capped = capped[:ambiguousCandidateCap]
		}
		return model.Doc{}, &AmbiguousSpecError{Spec: spec, Total: len(docs), Candidates: capped}
	}
	return docs[0], nil
}

func (s *Service) resolveSpec(spec string) ([]model.Doc, error) {
	// An exact id wins over every other interpretation.
	doc, err := s.db.GetDoc(spec)
	if err == nil {
		return []model.Doc{doc}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("looking up document %q: %w", spec, err)
	}

	switch {
	case spec == ".":
		return s.resolveCWD()
	case spec == "..":
		return s.resolveParents()
	case strings.HasPrefix(spec, "%"):
		return s.resolveListingRef(spec)
	}

	docs, err := s.db.FindDocsByName(spec)
	if err != nil {
		return nil, fmt.Errorf("searching documents by name %q: %w", spec, err)
	}
	return docs, nil
}

func (s *Service) resolveCWD() ([]model.Doc, error) {
	docs, err := s.db.ListingDocs(model.ListingCWD)
	if err != nil {
		return nil, fmt.Errorf("loading virtual CWD: %w", err)
	}
	if len(docs) < 1 {
		return nil, ErrCWDUndefined
	}
	return docs, nil
}

// resolveParents finds the immediate parents of the virtual CWD: for each
// account the CWD is associated with, the last element of each folder path
// leading to it.
func (s *Service) resolveParents() ([]model.Doc, error) {
	cwd, err := s.resolveCWD()
	if err != nil {
		return nil, err
	}

	accounts, err := s.db.AccountsForDoc(cwd[0].ID)
	if err != nil {
		return nil, fmt.Errorf("finding accounts of %s: %w", cwd[0].ID, err)
	}

	seen := make(map[string]bool)
	var parents []model.Doc
	for _, acct := range accounts {
		graph, err := s.LoadLinkageGraph(acct.ID, true)
		if err != nil {
			return nil, err
		}
		for _, path := range graph.FindParentPaths(cwd[0].ID) {
			if len(path) == 0 {
				continue
			}
			id := path[len(path)-1]
			if seen[id] {
				continue
			}
			seen[id] = true

			doc, err := s.db.GetDoc(id)
			if err != nil {
				return nil, fmt.Errorf("looking up parent %s: %w", id, err)
			}
			parents = append(parents, doc)
		}
	}

	return parents, nil
}

func (s *Service) resolveListingRef(spec string) ([]model.Doc, error) {
	n, err := strconv.Atoi(spec[1:])
	if err != nil {
		return nil, fmt.Errorf("parsing recent-document reference %q: %w", spec, err)
	}

	doc, err := s.db.ListingDoc(model.ListingLastPrint, n-1)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%q is not a valid recent-document reference", spec)
	}
	if err != nil {
		return nil, fmt.Errorf("loading recent-document reference %q: %w", spec, err)
	}
	return []model.Doc{doc}, nil
}

func sortDocsByModTime(docs []model.Doc) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].ModifiedTime.After(docs[j].ModifiedTime)
	})
}
