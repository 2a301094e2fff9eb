package lua

// Release is the Lua script for releasing a lock.
// It deletes KEYS[1] only while it still holds the caller's token (ARGV[1])
// and returns the number of deleted keys.
const Release = `
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
else
    return 0
end
`
