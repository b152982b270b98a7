package redis

const luaAppendEvents = `
	-- Atomically append events to the lists of one or more aggregates
	-- KEYS[i] = event list key of the i-th aggregate
	-- ARGV = for each key: expected list length, event count, events...
	-- Returns: {1, 0, 0} on success, or {0, i, currentLength}

	local pos = 1
	local ranges = {}

	for i = 1, #KEYS do
		local expected = tonumber(ARGV[pos])
		local count = tonumber(ARGV[pos + 1])
		local current = redis.call('LLEN', KEYS[i])
		if current ~= expected then
			return {0, i, current}
		end
		ranges[i] = {pos + 2, pos + 1 + count}
		pos = pos + 2 + count
	end

	for i = 1, #KEYS do
		for j = ranges[i][1], ranges[i][2] do
			redis.call('RPUSH', KEYS[i], ARGV[j])
		end
	end

	return {1, 0, 0}
	`
