package probe

import (
	"os"
	"sort"
	"strconv"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"buildstamp/descriptor"
)

// shortHashLength is the number of hex characters kept for the short commit
// hash.
const shortHashLength = 8

// gitOverrides are environment values that pre-empt repository probing
// per-field, so release tarballs without a .git directory can still carry
// exact VCS facts.
type gitOverrides struct {
	commit *string
	branch *string
	tag    *string
	dirty  *bool
}

func readGitOverrides() gitOverrides {
	var o gitOverrides
	if v, ok := os.LookupEnv("BUILDSTAMP_GIT_COMMIT"); ok && v != "" {
		o.commit = &v
	}
	if v, ok := os.LookupEnv("BUILDSTAMP_GIT_BRANCH"); ok && v != "" {
		o.branch = &v
	}
	if v, ok := os.LookupEnv("BUILDSTAMP_GIT_TAG"); ok && v != "" {
		o.tag = &v
	}
	if v, ok := os.LookupEnv("BUILDSTAMP_GIT_DIRTY"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			o.dirty = &b
		}
	}
	return o
}

// VCS locates the enclosing git repository starting at srcDir and walking
// upward, and extracts the state of HEAD. VCS information is inherently
// best-effort: no repository, an unborn HEAD, or a repository go-git cannot
// read all degrade to descriptor.ErrUnavailable rather than failing the
// build. A shallow clone still yields a valid HEAD hash.
func VCS(srcDir string) (*descriptor.VcsInfo, error) {
	o := readGitOverrides()

	info := repoState(srcDir)
	if info == nil {
		if o.commit == nil {
			return nil, descriptor.ErrUnavailable
		}
		info = &descriptor.VcsInfo{}
	}

	if o.commit != nil {
		info.CommitHash = *o.commit
		info.ShortHash = shorten(*o.commit)
	}
	if o.branch != nil {
		info.Branch = o.branch
	}
	if o.tag != nil {
		info.Tag = o.tag
	}
	if o.dirty != nil {
		info.Dirty = *o.dirty
	}
	return info, nil
}

// repoState reads HEAD, dirty state, branch, tag, and commit time from the
// repository enclosing srcDir. Returns nil when there is nothing usable.
func repoState(srcDir string) *descriptor.VcsInfo {
	repo, err := git.PlainOpenWithOptions(srcDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}

	hash := head.Hash().String()
	info := &descriptor.VcsInfo{
		CommitHash: hash,
		ShortHash:  shorten(hash),
	}

	// repo.Head resolves the symbolic HEAD: its name is the branch ref, or
	// plumbing.HEAD itself when detached.
	if name := head.Name(); name.IsBranch() {
		s := string(name)
		info.Branch = &s
	}

	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		ts := descriptor.NewTimestamp(commit.Committer.When, descriptor.FormatRFC3339)
		info.CommitTime = &ts
	}

	info.Dirty = isDirty(repo)
	info.Tag = headTag(repo, head.Hash())
	return info
}

// isDirty reports whether the working tree differs from HEAD. Only tracked
// modifications, additions, and deletions count; untracked and ignored files
// do not.
func isDirty(repo *git.Repository) bool {
	wt, err := repo.Worktree()
	if err != nil {
		return false
	}
	status, err := wt.Status()
	if err != nil {
		return false
	}
	for _, fs := range status {
		if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
			continue
		}
		if fs.Staging != git.Unmodified || fs.Worktree != git.Unmodified {
			return true
		}
	}
	return false
}

// headTag returns the name of a tag pointing exactly at HEAD, or nil. When
// several tags point at HEAD the lexicographically smallest name is chosen
// so re-runs stay deterministic.
func headTag(repo *git.Repository, head plumbing.Hash) *string {
	iter, err := repo.Tags()
	if err != nil {
		return nil
	}
	var names []string
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		// Annotated tags point at a tag object; peel it to the commit.
		if tag, err := repo.TagObject(ref.Hash()); err == nil {
			target = tag.Target
		}
		if target == head {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return &names[0]
}

func shorten(hash string) string {
	if len(hash) <= shortHashLength {
		return hash
	}
	return hash[:shortHashLength]
}
