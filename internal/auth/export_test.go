package auth

// IssueTokenAt exposes issueToken so tests can mint expired tokens.
var IssueTokenAt = issueToken
